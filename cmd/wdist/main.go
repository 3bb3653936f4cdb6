// Command wdist indexes local text files and answers shortest word distance
// queries. Run `wdist --help` for usage.
package main

import "github.com/Adithya-Monish-Kumar-K/worddistance/internal/cli"

func main() {
	cli.Execute()
}
