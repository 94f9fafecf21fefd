// Package core holds the small set of abstractions shared by every cpmigrate
// package: the FileSystem seam used for all disk access, and the permission
// constants applied to files cpmigrate creates.
package core
