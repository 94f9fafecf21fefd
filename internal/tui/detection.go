package tui

import (
	"os"

	"golang.org/x/term"
)

// ciEnvVars are set by common CI/CD providers.
var ciEnvVars = []string{
	"CI",
	"CONTINUOUS_INTEGRATION",
	"GITHUB_ACTIONS",
	"GITLAB_CI",
	"CIRCLECI",
	"TRAVIS",
	"JENKINS_HOME",
	"BUILDKITE",
	"BITBUCKET_BUILD_NUMBER",
	"DRONE",
	"TEAMCITY_VERSION",
	"APPVEYOR",
	"CODEBUILD_BUILD_ID",
	"TF_BUILD",
}

// lookupEnv is replaced in tests.
var lookupEnv = os.Getenv

// IsInteractive reports whether prompts can be shown: stdout must be a
// terminal and no CI environment may be detected.
func IsInteractive() bool {
	return IsTTY() && !InCI()
}

// InCI reports whether a known CI environment variable is set.
func InCI() bool {
	for _, env := range ciEnvVars {
		if lookupEnv(env) != "" {
			return true
		}
	}
	return false
}

// IsTTY checks if stdout is a terminal.
func IsTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd())) //nolint:gosec // G115: fd is a small value, no overflow risk
}
