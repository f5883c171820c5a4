package debug

import "testing"

func TestVirtualFileFields(t *testing.T) {
	f := NewVirtualFile(1, "shader.frag", "void main() {}\n")
	if !f.IsVirtual() {
		t.Error("IsVirtual() = false, want true")
	}
	if f.Name() != "shader.frag" {
		t.Errorf("Name() = %q", f.Name())
	}
	if f.Source() != "void main() {}\n" {
		t.Errorf("Source() = %q", f.Source())
	}
	if f.Path() != "shader.frag" {
		t.Errorf("Path() = %q, want just the name for a virtual file with no dir", f.Path())
	}
}

func TestPhysicalFileSplitsDirAndName(t *testing.T) {
	f := NewPhysicalFile(1, "/src/shaders/frag.glsl")
	if f.IsVirtual() {
		t.Error("IsVirtual() = true, want false")
	}
	if f.Name() != "frag.glsl" {
		t.Errorf("Name() = %q", f.Name())
	}
	if f.Path() != "/src/shaders/frag.glsl" {
		t.Errorf("Path() = %q", f.Path())
	}
}

func TestPhysicalFileWithNoSlashHasEmptyDir(t *testing.T) {
	f := NewPhysicalFile(1, "frag.glsl")
	if f.Path() != "frag.glsl" {
		t.Errorf("Path() = %q, want frag.glsl", f.Path())
	}
}

func TestFileBreakpoints(t *testing.T) {
	f := NewVirtualFile(1, "a", "")
	if f.HasBreakpoint(3) {
		t.Fatal("fresh file should have no breakpoints")
	}
	f.AddBreakpoint(3)
	f.AddBreakpoint(5)
	if !f.HasBreakpoint(3) || !f.HasBreakpoint(5) {
		t.Fatal("added breakpoints should be present")
	}
	if f.HasBreakpoint(4) {
		t.Fatal("line 4 was never set as a breakpoint")
	}
	f.ClearBreakpoints()
	if f.HasBreakpoint(3) || f.HasBreakpoint(5) {
		t.Fatal("ClearBreakpoints should remove every line")
	}
}
