package idp_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/zusplus/zusplus/pkg/idp"
)

/*
 * Common constants and helper functions for identity provider end-to-end
 * tests. This includes container setup, service operations, and assertions.
 */

const (
	testImageName = "zusplus-idp-test:latest"

	bootstrapToken = "test-bootstrap-token-12345"
	adminEmail     = "admin@zus.pl"
	adminPassword  = "AdminPassword123!"
)

// TestMain manages the test lifecycle, builds the Docker image once before
// all tests and cleans it up after all tests complete.
func TestMain(m *testing.M) {
	fmt.Fprintf(os.Stdout, "Building IDP Docker image...")

	if err := buildDockerImage(); err != nil {
		fmt.Fprintf(os.Stderr, "\nFailed to build Docker image: %v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stdout, " done\n")

	exitCode := m.Run()

	fmt.Fprintf(os.Stdout, "Cleaning up IDP Docker image...")
	cleanupDockerImage()
	fmt.Fprintf(os.Stdout, " done\n")

	os.Exit(exitCode)
}

func buildDockerImage() error {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "build",
		"-t", testImageName,
		"-f", "../../../cmd/idp/Dockerfile",
		"../../../")
	cmd.Dir = "."
	cmd.Stdout = os.Stdout
	cmd.Stderr = nil

	return cmd.Run()
}

func cleanupDockerImage() {
	ctx := context.Background()
	cmd := exec.CommandContext(ctx, "docker", "rmi", "-f", testImageName)
	_ = cmd.Run() // Ignore errors - image might not exist
}

// setupIDPContainer starts the identity provider in a container with relaxed
// rate limits and returns the base URL. Most tests should use this; rate
// limit behavior gets its own setup below.
func setupIDPContainer(t *testing.T) (string, func()) {
	t.Helper()
	return startContainer(t, map[string]string{
		"BOOTSTRAP_TOKEN":   bootstrapToken,
		"IDP_TOKEN_SECRET":  "e2e-test-signing-secret",
		"IDP_DATABASE_FILE": "/tmp/idp.db",
		"IDP_ISSUER":        "zusplus-idp",
		"ENV":               "test",
		"LOG_LEVEL":         "info",
		"LOG_FORMAT":        "json",
		// Increase rate limits for E2E tests to prevent test failures
		"RATELIMIT_STRICT_REQUESTS":   "1000",
		"RATELIMIT_STRICT_WINDOW_SEC": "60",
		"RATELIMIT_STRICT_BURST":      "1000",
		"RATELIMIT_MODERATE_REQUESTS": "1000",
		"RATELIMIT_MODERATE_BURST":    "1000",
	})
}

// setupIDPContainerWithDefaultRateLimits starts the identity provider with
// production rate limits, for testing that rate limiting actually works.
func setupIDPContainerWithDefaultRateLimits(t *testing.T) (string, func()) {
	t.Helper()
	return startContainer(t, map[string]string{
		"BOOTSTRAP_TOKEN":   bootstrapToken,
		"IDP_TOKEN_SECRET":  "e2e-test-signing-secret",
		"IDP_DATABASE_FILE": "/tmp/idp.db",
		"IDP_ISSUER":        "zusplus-idp",
		"ENV":               "test",
		"LOG_LEVEL":         "info",
		"LOG_FORMAT":        "json",
	})
}

func startContainer(t *testing.T, env map[string]string) (string, func()) {
	t.Helper()
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        testImageName,
		ExposedPorts: []string{"8081/tcp"},
		Env:          env,
		WaitingFor: wait.ForHTTP("/livez").
			WithPort("8081/tcp").
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	mappedPort, err := container.MappedPort(ctx, "8081")
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)

	baseURL := fmt.Sprintf("http://%s:%s", host, mappedPort.Port())

	cleanup := func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return baseURL, cleanup
}

// bootstrapService creates the first account.
func bootstrapService(t *testing.T, client *idp.Client) idp.User {
	t.Helper()

	user, err := client.Bootstrap(t.Context(), bootstrapToken, adminEmail, adminPassword)
	require.NoError(t, err, "Bootstrap should succeed")
	require.NotEmpty(t, user.ID)
	require.Equal(t, adminEmail, user.Email)

	return user
}

// assertTokenResponse verifies a token response has all required fields.
func assertTokenResponse(t *testing.T, resp *idp.TokenResponse, wantAAL string) {
	t.Helper()
	require.NotNil(t, resp)
	require.NotEmpty(t, resp.AccessToken, "Access token should not be empty")
	require.Equal(t, "Bearer", resp.TokenType, "Token type should be Bearer")
	require.Equal(t, wantAAL, resp.AAL)
}
