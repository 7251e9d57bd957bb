package deploy

import (
	"fmt"
	"strings"
)

// Shell command builders for the remote side. Kept as pure functions so the
// exact command text is testable without a host.

func mkdirCmd(dirs ...string) string {
	quoted := make([]string, len(dirs))
	for i, d := range dirs {
		quoted[i] = quote(d)
	}
	return "mkdir -p " + strings.Join(quoted, " ")
}

// pidByPortCmd lists PIDs of processes listening on port. Exit code 1 when
// nothing is bound, which callers tolerate.
func pidByPortCmd(port int) string {
	return fmt.Sprintf("lsof -t -i :%d -sTCP:LISTEN", port)
}

// pidByNameCmd is the fallback process lookup by artifact name. Known weak:
// matching the command line can produce false positives, so it runs only
// when the port lookup finds nothing.
func pidByNameCmd(name string) string {
	return "pgrep -f " + quote(name)
}

func termCmd(pid string) string  { return "kill " + pid }
func killCmd(pid string) string  { return "kill -9 " + pid }
func aliveCmd(pid string) string { return "kill -0 " + pid + " 2>/dev/null" }

func fileExistsCmd(path string) string {
	return "test -f " + quote(path)
}

func backupCmd(src, dst string) string {
	return fmt.Sprintf("cp -p %s %s", quote(src), quote(dst))
}

func rotateLogCmd(logPath, ts string) string {
	return fmt.Sprintf("mv %s %s", quote(logPath), quote(logPath+"."+ts))
}

func startCmd(t Target, a Artifact, logPath string) string {
	var opts []string
	if t.Java.HeapMin != "" {
		opts = append(opts, "-Xms"+t.Java.HeapMin)
	}
	if t.Java.HeapMax != "" {
		opts = append(opts, "-Xmx"+t.Java.HeapMax)
	}
	if t.Java.GC != "" {
		opts = append(opts, "-XX:"+t.Java.GC)
	}
	opts = append(opts, t.Java.Extra...)

	cmd := "nohup java"
	if len(opts) > 0 {
		cmd += " " + strings.Join(opts, " ")
	}
	cmd += " -jar " + quote(t.ArtifactPath(a))
	if t.Java.Profile != "" {
		cmd += " --spring.profiles.active=" + t.Java.Profile
	}
	return fmt.Sprintf("%s > %s 2>&1 < /dev/null &", cmd, quote(logPath))
}

// portListeningCmd exits 0 iff something is in LISTEN state on port.
func portListeningCmd(port int) string {
	return fmt.Sprintf("ss -ltn | grep -q ':%d '", port)
}

func tailCmd(logPath string, lines int) string {
	return fmt.Sprintf("tail -n %d %s", lines, quote(logPath))
}

// quote wraps s in single quotes, escaping embedded single quotes.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
