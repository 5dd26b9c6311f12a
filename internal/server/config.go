package server

type HttpConfig struct {
	// Host and Port are the admin listen address.
	Host string `conf:"host"`
	Port int    `conf:"port"`

	// H2c enables HTTP/2 cleartext upgrade.
	H2c bool `conf:"h2c"`
}
