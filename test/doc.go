// Package test provides infrastructure for integration testing Atelier.
//
// The package implements a TestEnvironment that wires the full service
// stack against the mock execution engine, serves it over a real HTTP
// server and exposes a ready-to-use API client. It can be used both
// within Atelier and by external packages that want to test their
// integration against the API.
//
// Example Usage:
//
//	func TestSomething(t *testing.T) {
//		env := test.NewTestEnvironment(t)
//		defer env.Cleanup()
//
//		err := env.APIClient.StartGeneration(env.Context(), types.GenerateRequest{Prompt: "a dog"})
//		require.NoError(t, err)
//	}
package test
