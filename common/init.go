package common

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/ensdomains/ens-avatar-fallback/common/logger"
)

var Version = "v0.1.0"
var StartTime = time.Now().Unix()

var (
	Port         = flag.Int("port", 3000, "the listening port")
	PrintVersion = flag.Bool("version", false, "print version and exit")
	PrintHelp    = flag.Bool("help", false, "print help and exit")
	LogDir       = flag.String("log-dir", "", "specify the log directory")
)

func printHelp() {
	fmt.Println("ENS Avatar Fallback " + Version + " - deterministic avatar generation service.")
	fmt.Println("Usage: ens-avatar-fallback [--port <port>] [--log-dir <log directory>] [--version] [--help]")
}

// Init parses the command line and applies the startup flags. It must be
// called from main before anything logs, never from package init, so that
// importing this package stays side-effect free for test binaries.
func Init() {
	flag.Parse()

	if *PrintVersion {
		fmt.Println(Version)
		os.Exit(0)
	}

	if *PrintHelp {
		printHelp()
		os.Exit(0)
	}

	// priority: command line flag > environment variable
	logDir := *LogDir
	if logDir == "" {
		logDir = os.Getenv("LOG_DIR")
	}

	if logDir != "" {
		var err error
		logDir, err = filepath.Abs(logDir)
		if err != nil {
			log.Fatal(err)
		}
		if _, err := os.Stat(logDir); os.IsNotExist(err) {
			err = os.Mkdir(logDir, 0777)
			if err != nil {
				log.Fatal(err)
			}
		}
		logger.LogDir = logDir
	}
}
