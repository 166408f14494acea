package cmd

import (
	"fmt"
	"os"
)

// runVersion displays version and environment information.
func runVersion() {
	fmt.Printf("sqlmint %s\n", AppVersion)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
	fmt.Println()

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey != "" && len(geminiKey) >= 8 {
		fmt.Printf("GEMINI_API_KEY: %s...%s (configured)\n",
			geminiKey[:4], geminiKey[len(geminiKey)-4:])
	} else {
		fmt.Println("GEMINI_API_KEY: Not set")
	}
}
