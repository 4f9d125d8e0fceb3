package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap/zapcore"

	"github.com/semmidev/mongo-s3-backup/internal/adapter/toolrunner"
	"github.com/semmidev/mongo-s3-backup/internal/config"
	"github.com/semmidev/mongo-s3-backup/internal/domain"
	"github.com/semmidev/mongo-s3-backup/internal/infrastructure/logger"
)

// fakeDump mimics mongodump: it writes <out>/<db>/items.bson.
const fakeDump = `#!/bin/sh
while [ $# -gt 0 ]; do
  case "$1" in
    -d) db="$2"; shift 2 ;;
    -o) out="$2"; shift 2 ;;
    *) shift ;;
  esac
done
if [ "$db" = "broken" ]; then
  echo "Failed: error connecting to db server" >&2
  exit 1
fi
mkdir -p "$out/$db" && echo "{\"db\":\"$db\"}" > "$out/$db/items.bson"
echo "done dumping $db"
`

// fakeRestore mimics mongorestore: the last argument is the dump directory.
// It records what it saw so the test can check the round trip.
const fakeRestore = `#!/bin/sh
for last; do :; done
cat "$last/items.bson" >> "%s"
`

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEndToEnd(t *testing.T) {
	if toolrunner.LookPath("tar") != nil || toolrunner.LookPath("sh") != nil {
		t.Skip("tar and sh are required")
	}

	Convey("Given the real pipeline with stand-in mongo tools", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		restored := filepath.Join(dir, "restored.log")

		cfg := &config.Config{
			MongoDB: []config.MongoDBConfig{
				{Host: "localhost", Port: 27017, DB: "orders"},
				{Host: "localhost", Port: 27017, DB: "users"},
			},
			S3:            config.StoreConfig{Provider: "local", Path: filepath.Join(dir, "bucket"), RetryAttempts: 1},
			NumOfArchives: 1,
			Workspace:     config.WorkspaceConfig{Root: filepath.Join(dir, "ws")},
			Tools: config.ToolsConfig{
				MongoDump:    writeScript(t, dir, "mongodump", fakeDump),
				MongoRestore: writeScript(t, dir, "mongorestore", fmt.Sprintf(fakeRestore, restored)),
				Tar:          "tar",
			},
		}

		a, err := New(ctx, cfg, logger.FromCore(zapcore.NewNopCore()))
		So(err, ShouldBeNil)

		Convey("When backing up and restoring", func() {
			So(a.BackupAll(ctx), ShouldBeNil)
			So(a.BackupAll(ctx), ShouldBeNil)

			Convey("Then one archive per source is kept", func() {
				objects, err := a.store.List(ctx)
				So(err, ShouldBeNil)
				So(objects, ShouldHaveLength, 2)
			})

			Convey("Then the workspace is empty", func() {
				entries, _ := os.ReadDir(cfg.Workspace.Root)
				So(entries, ShouldBeEmpty)
			})

			Convey("Then restore feeds the extracted dump to the restore tool", func() {
				So(a.RestoreAll(ctx), ShouldBeNil)
				content, err := os.ReadFile(restored)
				So(err, ShouldBeNil)
				So(string(content), ShouldEqual, "{\"db\":\"orders\"}\n{\"db\":\"users\"}\n")
			})
		})

		Convey("When the dump tool fails", func() {
			a.sources = []domain.Source{{Host: "localhost", Port: 27017, DB: "broken"}}

			err := a.BackupAll(ctx)

			Convey("Then the exit code is reported and nothing is uploaded", func() {
				var toolErr *domain.ToolError
				So(errors.As(err, &toolErr), ShouldBeTrue)
				So(toolErr.ExitCode, ShouldEqual, 1)

				objects, _ := a.store.List(ctx)
				So(objects, ShouldBeEmpty)

				entries, _ := os.ReadDir(cfg.Workspace.Root)
				So(entries, ShouldBeEmpty)
			})
		})
	})
}
