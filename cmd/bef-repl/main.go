// Command bef-repl is the interactive front end, grounded on the
// teacher's root main.go: greet the user by their OS account, then hand
// off to the repl package.
package main

import (
	"fmt"
	"os"
	"os/user"

	"bef/repl"
)

func main() {
	currentUser, err := user.Current()
	if err != nil {
		fmt.Printf("Error getting current user: %v\n", err)
		return
	}

	fmt.Printf("Welcome to the bef REPL, %s!\n", currentUser.Username)
	repl.Start(os.Stdin, os.Stdout)
}
