package main

import (
	"github.com/FACorreiaa/payroll-journal-converter/cmd/journalctl/cmd"
)

func main() {
	cmd.Execute()
}
