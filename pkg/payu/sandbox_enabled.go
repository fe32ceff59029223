//go:build paysandbox

package payu

const sandboxBypassEnabled = true
