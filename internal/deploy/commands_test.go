package deploy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandText(t *testing.T) {
	target := testTarget()
	artifact := testArtifact()

	tests := []struct {
		name string
		got  string
		want string
	}{
		{
			name: "mkdir",
			got:  mkdirCmd("/opt/demo", "/opt/demo/backup"),
			want: "mkdir -p '/opt/demo' '/opt/demo/backup'",
		},
		{
			name: "pid by port",
			got:  pidByPortCmd(8070),
			want: "lsof -t -i :8070 -sTCP:LISTEN",
		},
		{
			name: "pid by name",
			got:  pidByNameCmd("demo.jar"),
			want: "pgrep -f 'demo.jar'",
		},
		{
			name: "backup",
			got:  backupCmd("/opt/demo/demo.jar", "/opt/demo/backup/demo.jar.20240102030405"),
			want: "cp -p '/opt/demo/demo.jar' '/opt/demo/backup/demo.jar.20240102030405'",
		},
		{
			name: "rotate log",
			got:  rotateLogCmd("/opt/demo/demo.jar.log", "20240102030405"),
			want: "mv '/opt/demo/demo.jar.log' '/opt/demo/demo.jar.log.20240102030405'",
		},
		{
			name: "start",
			got:  startCmd(target, artifact, "/opt/demo/demo.jar.log"),
			want: "nohup java -Xms512m -Xmx1024m -XX:+UseG1GC -jar '/opt/demo/demo.jar'" +
				" --spring.profiles.active=prod > '/opt/demo/demo.jar.log' 2>&1 < /dev/null &",
		},
		{
			name: "port listening",
			got:  portListeningCmd(8070),
			want: "ss -ltn | grep -q ':8070 '",
		},
		{
			name: "log tail",
			got:  tailCmd("/opt/demo/demo.jar.log", 20),
			want: "tail -n 20 '/opt/demo/demo.jar.log'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestStartCommandWithoutOptionalOpts(t *testing.T) {
	target := testTarget()
	target.Java = JavaOpts{}

	got := startCmd(target, testArtifact(), "/opt/demo/demo.jar.log")
	assert.Equal(t, "nohup java -jar '/opt/demo/demo.jar' > '/opt/demo/demo.jar.log' 2>&1 < /dev/null &", got)
}

func TestQuoteEscapesSingleQuotes(t *testing.T) {
	assert.Equal(t, `'/opt/it'\''s here'`, quote("/opt/it's here"))
}

func TestTargetPaths(t *testing.T) {
	target := testTarget()
	artifact := testArtifact()

	assert.Equal(t, "/opt/demo/demo.jar", target.ArtifactPath(artifact))
	assert.Equal(t, "/opt/demo/demo.jar.log", target.LogPath(artifact))

	target.LogFile = "/var/log/demo/app.log"
	assert.Equal(t, "/var/log/demo/app.log", target.LogPath(artifact))
}
