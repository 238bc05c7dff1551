// Package config loads swapp's configuration.
//
// Settings live in ~/.config/swapp/config.toml:
//
//	api_url = "https://swap.example.org"
//	request_timeout = "10s"
//	requests_per_second = 8
//	trusted_image_hosts = ["cdn.example.org", "*.images.example.org"]
//	log_file = "~/.local/state/swapp/swapp.log"
//	poll_seconds = 30
//
// A missing file or blank value means the default. SWAPP_API_URL,
// SWAPP_LOG_FILE, SWAPP_REQUESTS_PER_SECOND and SWAPP_TRUSTED_IMAGE_HOSTS
// (comma separated) override the file.
package config
