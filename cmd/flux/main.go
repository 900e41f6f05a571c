// Command flux is the local repository engine's CLI front end.
package main

import "github.com/Balcus/flux/cli"

func main() {
	cli.Execute()
}
