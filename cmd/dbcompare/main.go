package main

import "github.com/dbsmedya/dbcompare/cmd/dbcompare/cmd"

func main() {
	cmd.Execute()
}
