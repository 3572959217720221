// Command ufmsim reads the User Flash Memory of a simulated MachXO2 EFB
// through a cycle-accurate model of the UFM reader.
package main

import "github.com/efbutils/ufmsim/ufmsim/cmd"

func main() {
	cmd.Execute()
}
