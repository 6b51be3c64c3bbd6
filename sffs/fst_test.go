package sffs

import "testing"

func TestIsValidNonRootPath(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"/", false},
		{"", false},
		{"/a", true},
		{"/shared2/sys/SYSCONF", true},
		{"/trailing/", false},
		{"noleadingslash", false},
	}
	for _, c := range cases {
		if got := IsValidNonRootPath(c.path); got != c.want {
			t.Errorf("IsValidNonRootPath(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

func TestSplitPath(t *testing.T) {
	cases := []struct {
		path       string
		wantParent string
		wantName   string
	}{
		{"/SYSCONF", "/", "SYSCONF"},
		{"/shared2/sys/SYSCONF", "/shared2/sys", "SYSCONF"},
		{"/a/b", "/a", "b"},
	}
	for _, c := range cases {
		parent, name := SplitPath(c.path)
		if parent != c.wantParent || name != c.wantName {
			t.Errorf("SplitPath(%q) = (%q, %q), want (%q, %q)", c.path, parent, name, c.wantParent, c.wantName)
		}
	}
}

func TestSplitPathParentNeverHasTrailingSlash(t *testing.T) {
	parent, _ := SplitPath("/shared2/sys/SYSCONF")
	if len(parent) > 1 && parent[len(parent)-1] == '/' {
		t.Fatalf("SplitPath parent %q has a trailing slash", parent)
	}
}

func TestGetFstIndexAndLookupRoundtrip(t *testing.T) {
	e := newFormattedEngine(t)
	sb := e.GetSuperblock()

	if err := e.CreateDirectory(0, 0, "/shared2", 0, Modes{ModeRW, ModeRead, ModeRead}); err != nil {
		t.Fatalf("CreateDirectory: %v", err)
	}
	if err := e.CreateFile(0, 0, "/shared2/SYSCONF", 0, Modes{ModeRW, ModeRead, ModeRead}); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	index, err := GetFstIndex(sb, "/shared2/SYSCONF")
	if err != nil {
		t.Fatalf("GetFstIndex: %v", err)
	}
	if name := sb.FST(index).Name(); name != "SYSCONF" {
		t.Fatalf("resolved entry has name %q, want SYSCONF", name)
	}

	if _, err := GetFstIndex(sb, "/shared2/nonexistent"); err == nil {
		t.Fatalf("expected an error for missing path")
	}
}

func TestHasPermissionSuperuserBypass(t *testing.T) {
	e := newFormattedEngine(t)
	if err := e.CreateFile(0, 0, "/private", 0, Modes{ModeRW, ModeNone, ModeNone}); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	sb := e.GetSuperblock()
	index, err := GetFstIndex(sb, "/private")
	if err != nil {
		t.Fatalf("GetFstIndex: %v", err)
	}
	entry := sb.FST(index)

	if !HasPermission(entry, 0, 0, ModeRW) {
		t.Fatalf("uid 0 should bypass every permission check")
	}
	if HasPermission(entry, 2, 2, ModeRead) {
		t.Fatalf("unrelated uid/gid should not have access to a ModeNone/ModeNone entry")
	}
}
