// Command token prints a signed bearer token for a user id, for use against
// POST /requests/:id/execute on a local server sharing the same JWT_SECRET.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	glog "github.com/Laisky/go-utils/v5/log"
	"github.com/Laisky/zap"
	_ "github.com/joho/godotenv/autoload"

	"github.com/apiprobe/apiprobe/common/config"
	"github.com/apiprobe/apiprobe/common/jwtauth"
)

func main() {
	userId := flag.String("user", "", "user id placed in the token subject")
	ttl := flag.Duration("ttl", time.Duration(config.JWTExpiresHours)*time.Hour, "token lifetime, 0 for no expiry")
	flag.Parse()

	logger, err := glog.NewConsoleWithName("apiprobe-token", glog.LevelInfo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %+v\n", err)
		os.Exit(1)
	}

	if *userId == "" {
		logger.Error("missing -user")
		flag.Usage()
		os.Exit(2)
	}
	if config.JWTSecretEnvValue == "" {
		logger.Warn("JWT_SECRET is not set, the token will not verify against a running server")
	}

	token, err := jwtauth.IssueToken(*userId, *ttl)
	if err != nil {
		logger.Error("issue token", zap.Error(err))
		os.Exit(1)
	}
	fmt.Println(token)
}
