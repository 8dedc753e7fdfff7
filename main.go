// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/web2board/web2board/cmd/web2board"

func main() {
	cmd.Execute()
}
