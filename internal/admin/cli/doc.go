// Package cli implements asthmactl, the operator tool for AsthmaGuard.
//
// It talks to the same database as the server, through the same services,
// and is the only place where accounts are disabled or re-enabled.
//
// Commands:
//
//	create-user      prompt for username, email and password and create the account
//	disable <email>  mark the account inactive
//	enable <email>   mark the account active again
//	migrate          apply pending schema migrations
//	help             print usage
package cli
