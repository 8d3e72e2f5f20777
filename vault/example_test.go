// Copyright 2026 The Sanctum Authors
// SPDX-License-Identifier: Apache-2.0

package vault_test

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jwgale/sanctum-go/vault"
)

// Retrieve a credential and let Close release the lease.
func Example() {
	session, err := vault.NewSession(vault.SessionConfig{
		AgentName: "ci-deploy",
	})
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	if err := session.Connect(ctx); err != nil {
		log.Fatal(err)
	}
	defer session.Close()

	apiKey, err := session.Retrieve(ctx, "svc/api-key", 0)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(len(apiKey))
}

// WithSession scopes the session to a function and guarantees that
// every lease is released on the way out.
func ExampleWithSession() {
	config := vault.SessionConfig{AgentName: "ci-deploy"}

	err := vault.WithSession(context.Background(), config, func(session *vault.Session) error {
		result, err := session.Use(context.Background(), "svc/signer", "sign", map[string]any{
			"payload": "deadbeef",
		})
		if err != nil {
			return err
		}
		fmt.Println(result["status"])
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}
}

// Typed errors carry the daemon's diagnostic fields.
func ExampleIsCode() {
	session, err := vault.NewSession(vault.SessionConfig{AgentName: "ci-deploy"})
	if err != nil {
		log.Fatal(err)
	}
	if err := session.Connect(context.Background()); err != nil {
		log.Fatal(err)
	}
	defer session.Close()

	_, err = session.Retrieve(context.Background(), "prod/db-password", 0)
	if vault.IsCode(err, vault.CodeAccessDenied) {
		var vaultErr *vault.Error
		errors.As(err, &vaultErr)
		fmt.Println(vaultErr.Suggestion)
	}
}
