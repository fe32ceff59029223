//go:build !paysandbox

package payu

// sandboxBypassEnabled gates the conversion of a provider-inactive decline
// into a synthetic approval. Test builds opt in with -tags paysandbox;
// without the tag the bypass is unreachable regardless of config.
const sandboxBypassEnabled = false
