package main

import (
	"fmt"
	"log"

	"faasrhub/core"
)

func main() {
	log.Printf("🔑 Generating new session signing secret...")

	// Generate a new secret key with "faasr" prefix for SESSION_SIGNING_SECRET
	secret, err := core.NewSecretKey("faasr")
	if err != nil {
		log.Fatalf("❌ Failed to generate signing secret: %v", err)
	}

	fmt.Printf("Generated signing secret: %s\n", secret)
	log.Printf("✅ Successfully generated session signing secret")
}
