// Package keychain stores session secrets in the operating system keychain.
// macOS goes through security(1), Linux through secret-tool(1) (Secret
// Service). Everything else reports ErrUnavailable.
package keychain

// Service is the keychain service every keelctl item is filed under.
const Service = "keelctl"

// Set stores value for account, replacing any previous item.
func Set(service, account, value string) error {
	return set(service, account, value)
}

// Get returns the stored value, or "" when there is no such item.
func Get(service, account string) (string, error) {
	return get(service, account)
}

// Delete removes the item. Missing items are not an error.
func Delete(service, account string) error {
	return remove(service, account)
}

// Available reports whether the platform helper binary is installed.
func Available() bool {
	return available()
}
