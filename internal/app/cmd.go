package app

import "strconv"

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "serve":
		return CommandServe
	case "migrate":
		return CommandMigrate
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}

// MigrateAction はmigrateサブコマンドの操作。
type MigrateAction string

const (
	MigrateUp      MigrateAction = "up"
	MigrateDown    MigrateAction = "down"
	MigrateVersion MigrateAction = "version"
)

// ParseMigrateArgs はmigrateに続く引数を解析する。
// 操作の省略時はup、downのステップ数の省略時は1とする。
func ParseMigrateArgs(args []string) (MigrateAction, int) {
	if len(args) == 0 {
		return MigrateUp, 0
	}

	switch MigrateAction(args[0]) {
	case MigrateDown:
		steps := 1
		if len(args) > 1 {
			if n, err := strconv.Atoi(args[1]); err == nil {
				steps = n
			}
		}
		return MigrateDown, steps
	case MigrateVersion:
		return MigrateVersion, 0
	default:
		return MigrateUp, 0
	}
}
