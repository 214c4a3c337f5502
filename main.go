// main.go
package main

import "github.com/xkilldash9x/drover/cmd"

func main() {
	cmd.Execute()
}
