// Command denuncias runs the complaint dashboard BFA.
//
// The service sits between the browser client and Supabase: it verifies
// sessions, derives deadline status, filters, sorts and paginates records,
// and renders the spreadsheet and PDF reports.
package main

import (
	"os"

	"github.com/boddenberg/denuncias-bfa/internal/cli"
)

func main() {
	if err := cli.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
