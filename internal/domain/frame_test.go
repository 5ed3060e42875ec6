package domain

import "testing"

func TestFrameFilename_Canonical(t *testing.T) {
	cases := map[int]string{
		0:     "0000.png",
		35:    "0035.png",
		999:   "0999.png",
		12345: "12345.png",
	}
	for n, want := range cases {
		if got := FrameFilename(n); got != want {
			t.Fatalf("FrameFilename(%d)=%q，期望 %q", n, got, want)
		}
	}
}

func TestParseFrameFilename(t *testing.T) {
	ok := map[string]int{
		"0035.png": 35,
		"35.png":   35,
		"0.png":    0,
		"1200.png": 1200,
	}
	for name, want := range ok {
		n, matched := ParseFrameFilename(name)
		if !matched || n != want {
			t.Fatalf("ParseFrameFilename(%q)=(%d,%v)，期望 (%d,true)", name, n, matched, want)
		}
	}

	bad := []string{"a.png", "0035.PNG", "x0035.png", "0035.png.bak", ".png", "0035_png", "99999999999999999999999.png"}
	for _, name := range bad {
		if _, matched := ParseFrameFilename(name); matched {
			t.Fatalf("期望 %q 不匹配", name)
		}
	}
}

func TestFrameFilename_RoundTrip(t *testing.T) {
	for n := 0; n < 2000; n += 37 {
		got, ok := ParseFrameFilename(FrameFilename(n))
		if !ok || got != n {
			t.Fatalf("round-trip 失败：%d -> %d (%v)", n, got, ok)
		}
	}
	if IsCanonicalFrameFilename("35.png") {
		t.Fatalf("35.png 不是规范名")
	}
	if !IsCanonicalFrameFilename("0035.png") {
		t.Fatalf("0035.png 应是规范名")
	}
}

func TestSyncDirection(t *testing.T) {
	if SyncIn.FileName() != "N2V_SYNC" || SyncOut.FileName() != "V2N_SYNC" {
		t.Fatalf("同步表文件名不符合约定")
	}
	d, ok := ParseSyncDirection("v2n")
	if !ok || d != SyncOut {
		t.Fatalf("ParseSyncDirection(v2n)=(%v,%v)", d, ok)
	}
	if _, ok := ParseSyncDirection("x"); ok {
		t.Fatalf("期望未知方向解析失败")
	}
}
