// Copyright VisData and each contributor.
// SPDX-License-Identifier: MIT

package constants

// Environment is the deployment environment name of the VisData platform.
// It is used as a prefix on NATS subjects so that environments sharing a
// NATS cluster do not cross-deliver messages.
type Environment string

// Constants for the environment names of the VisData platform.
const (
	// EnvironmentDev is the development environment name.
	EnvironmentDev Environment = "dev."
	// EnvironmentStg is the staging environment name.
	EnvironmentStg Environment = "stg."
	// EnvironmentProd is the production environment name.
	EnvironmentProd Environment = "prod."
)

// ParseEnvironment parses the environment from a string.
func ParseEnvironment(env string) Environment {
	switch env {
	case "dev", "development":
		return EnvironmentDev
	case "stg", "stage", "staging":
		return EnvironmentStg
	case "prod", "production":
		return EnvironmentProd
	default:
		return EnvironmentDev
	}
}
