package priority

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ProcOracle derives a process's priority from the Linux scheduling "nice"
// value reported in /proc/<pid>/stat, so the arbiter can prefer foreground,
// interactive playback work over background, batch-scheduled work without
// requiring every caller to maintain its own priority table. Lower nice
// value already means "more important" in Linux's own scale, which lines up
// with this package's convention for free.
type ProcOracle struct {
	procRoot string
}

// NewProcOracle returns a ProcOracle reading from the standard /proc
// mount point.
func NewProcOracle() *ProcOracle {
	return &ProcOracle{procRoot: "/proc"}
}

// Priority implements Oracle by parsing /proc/<pid>/stat. It returns false
// if the process is gone or the stat file can't be parsed, mirroring the
// "unknown pid" case the arbitration engine expects.
func (o *ProcOracle) Priority(pid int32) (int32, bool) {
	if pid <= 0 {
		return 0, false
	}
	path := fmt.Sprintf("%s/%d/stat", o.procRoot, pid)
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	if !sc.Scan() {
		return 0, false
	}
	nice, ok := niceFromStatLine(sc.Text())
	if !ok {
		return 0, false
	}
	return nice, true
}

// niceFromStatLine extracts field 19 (nice value, 1-indexed) from a
// /proc/<pid>/stat line. The comm field (field 2) is parenthesized and may
// itself contain spaces, so splitting naively on spaces from the front is
// unsafe; this scans from the last ')' instead, the same trick the kernel
// documentation recommends.
func niceFromStatLine(line string) (int32, bool) {
	close := strings.LastIndexByte(line, ')')
	if close < 0 || close+2 >= len(line) {
		return 0, false
	}
	rest := strings.Fields(line[close+2:])
	// After comm, field 3 (state) is rest[0]; nice is field 19 overall,
	// i.e. rest[19-3] = rest[16].
	const niceOffset = 16
	if len(rest) <= niceOffset {
		return 0, false
	}
	n, err := strconv.Atoi(rest[niceOffset])
	if err != nil {
		return 0, false
	}
	return int32(n), true
}
