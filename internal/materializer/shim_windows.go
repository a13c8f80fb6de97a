package materializer

import (
	"fmt"
	"strings"

	"github.com/moby/sys/sequential"

	"github.com/go-rpm/rpm/internal/rpmpath"
)

// writeWindowsShims writes the .cmd and .ps1 forwarders described in spec
// section 4.4. They are opened with sequential.Create rather than os.Create
// because each is written once, start-to-finish, and never reopened for
// random access - exactly the access pattern moby/sys/sequential optimizes
// for on Windows.
func writeWindowsShims(binDir rpmpath.AbsolutePath, pkgName, shimName, relPath string) error {
	winRel := strings.ReplaceAll(relPath, "/", "\\")

	cmdContent := fmt.Sprintf("@ECHO off\r\n\"%%~dp0\\..\\%s\\%s\" %%*\r\n", pkgName, winRel)
	if err := writeSequential(binDir.Join(shimName+".cmd"), cmdContent); err != nil {
		return err
	}

	ps1Content := fmt.Sprintf("& \"$PSScriptRoot\\..\\%s\\%s\" $args\r\n", pkgName, winRel)
	return writeSequential(binDir.Join(shimName+".ps1"), ps1Content)
}

func writeSequential(path rpmpath.AbsolutePath, content string) error {
	f, err := sequential.Create(path.ToString())
	if err != nil {
		return fmt.Errorf("writing shim %s: %w", path.ToString(), err)
	}
	defer f.Close()
	_, err = f.WriteString(content)
	return err
}
