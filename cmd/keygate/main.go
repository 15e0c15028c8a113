// Command keygate runs the API key authentication service.
package main

import "github.com/mylifeisrpg/keygate/cmd/keygate/cmd"

func main() {
	cmd.Execute()
}
