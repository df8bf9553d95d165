// Package config loads soratui settings.
//
// # Sources
//
// Settings come from three places, later ones winning:
//
//  1. Built-in defaults (Default)
//  2. ~/.config/soratui/config.toml, or the file named by --config
//  3. Command-line flags, applied with Config.Apply
//
// A missing config file is not an error. The API key is never read from the
// file: it comes from OPENAI_API_KEY, which LoadEnv may populate from a .env
// file in the working directory.
//
// # TOML Format
//
//	profile = "sora2"            # or "openai"
//	endpoint = ""                # overrides the profile's base URL
//	output_dir = "~/Videos/sora"
//	poll_interval = "2s"
//	max_polls = 0                # 0 polls until a terminal status
//	log_file = "~/.local/share/soratui/soratui.log"   # "-" for stderr
//	log_level = "info"
//	log_format = "text"          # or "json"
//
// All keys are optional. Paths starting with "~" are expanded.
//
// # Errors
//
// Problems the user must fix (a missing API key, an unparseable duration,
// an unknown log format) are returned as *Error so the command can print
// them without a stack of wrapping prefixes and exit before any UI starts.
// I/O and TOML syntax errors are wrapped with fmt.Errorf.
package config
