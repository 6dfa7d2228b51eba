// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services are pure Go and talk to infrastructure only through the
// driven port interfaces.
package services
