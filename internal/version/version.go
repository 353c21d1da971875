package version

import "fmt"

var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GoVersion = "unknown"
)

func SetInfo(v, bt, gc, gv string) {
	if v != "" {
		Version = v
	}
	if bt != "" {
		BuildTime = bt
	}
	if gc != "" {
		GitCommit = gc
	}
	if gv != "" {
		GoVersion = gv
	}
}

// Short возвращает однострочное описание версии для логов
func Short() string {
	return fmt.Sprintf("repeatq %s (%s)", Version, GitCommit)
}

// Details возвращает полную информацию о сборке для команды version
func Details() string {
	return fmt.Sprintf("repeatq - repeatable jobs for Redis delayed queues\nVersion: %s\nBuild Time: %s\nGit Commit: %s\nGo Version: %s\n",
		Version, BuildTime, GitCommit, GoVersion)
}
