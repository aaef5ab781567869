// kbuild clones, configures, patches and builds a CentOS Stream kernel
// tree for a target architecture.
package main

import (
	"github.com/sdunnagan/kbuild-centos/src/kbuild/core"
)

func main() {
	core.Execute()
}
