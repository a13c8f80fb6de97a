package installer

import "testing"

func TestPlatformCompatibleEmptyAlwaysTrue(t *testing.T) {
	if !platformCompatible(nil, "linux") {
		t.Fatal("empty list should be compatible with anything")
	}
}

func TestPlatformCompatibleAllowList(t *testing.T) {
	list := []string{"linux", "darwin"}
	if !platformCompatible(list, "linux") {
		t.Fatal("linux should be allowed")
	}
	if platformCompatible(list, "win32") {
		t.Fatal("win32 should not be allowed")
	}
}

func TestPlatformCompatibleNegation(t *testing.T) {
	list := []string{"!win32"}
	if platformCompatible(list, "win32") {
		t.Fatal("win32 should be excluded")
	}
	if !platformCompatible(list, "linux") {
		t.Fatal("linux should be allowed when only win32 is negated")
	}
	if !platformCompatible(list, "darwin") {
		t.Fatal("darwin should be allowed when only win32 is negated")
	}
}

func TestIsPlatformCompatibleCombinesOSAndCPU(t *testing.T) {
	if !isPlatformCompatible(nil, nil) {
		t.Fatal("nil os/cpu should always be compatible")
	}
	if isPlatformCompatible([]string{"!" + currentOS()}, nil) {
		t.Fatal("current OS negated should be incompatible")
	}
	if isPlatformCompatible(nil, []string{"!" + currentCPU()}) {
		t.Fatal("current CPU negated should be incompatible")
	}
}
