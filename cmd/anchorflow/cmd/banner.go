package cmd

import (
	"fmt"
)

const banner = `
                     _                __ _
   __ _ _ __   ___| |__   ___  _ __ / _| | _____      __
  / _` + "`" + ` | '_ \ / __| '_ \ / _ \| '__| |_| |/ _ \ \ /\ / /
 | (_| | | | | (__| | | | (_) | |  |  _| | (_) \ V  V /
  \__,_|_| |_|\___|_| |_|\___/|_|  |_| |_|\___/ \_/\_/

`

func printBanner() {
	fmt.Printf("\x1b[34m%s\x1b[0m", banner)
	fmt.Printf("\x1b[32m  Anchor Deposit Engine - Version %s\x1b[0m\n\n", Version)
}
