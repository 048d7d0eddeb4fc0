package config

// fileConfig mirrors the run file. Durations are given in seconds.
type fileConfig struct {
	Title                   string            `yaml:"title" toml:"title"`
	BrowserPath             string            `yaml:"browser_path" toml:"browser_path"`
	ExtraArgs               []string          `yaml:"extra_args" toml:"extra_args"`
	Controller              []string          `yaml:"controller" toml:"controller"`
	Process                 string            `yaml:"process" toml:"process"`
	ChildProcess            *string           `yaml:"child_process" toml:"child_process"`
	BrowserLog              string            `yaml:"browser_log" toml:"browser_log"`
	ErrorFilename           string            `yaml:"error_filename" toml:"error_filename"`
	BrowserWait             *float64          `yaml:"browser_wait" toml:"browser_wait"`
	SymbolsPath             string            `yaml:"symbols_path" toml:"symbols_path"`
	StackwalkPath           string            `yaml:"stackwalk_path" toml:"stackwalk_path"`
	CrashArchive            string            `yaml:"crash_archive" toml:"crash_archive"`
	Remote                  bool              `yaml:"remote" toml:"remote"`
	Webserver               string            `yaml:"webserver" toml:"webserver"`
	Env                     map[string]string `yaml:"env" toml:"env"`
	Preferences             map[string]any    `yaml:"preferences" toml:"preferences"`
	Extensions              []string          `yaml:"extensions" toml:"extensions"`
	LogcatPath              string            `yaml:"logcat_path" toml:"logcat_path"`
	XperfPath               string            `yaml:"xperf_path" toml:"xperf_path"`
	Sampler                 string            `yaml:"sampler" toml:"sampler"`
	ResponsivenessSupported *bool             `yaml:"responsiveness_supported" toml:"responsiveness_supported"`
	Test                    fileTest          `yaml:"test" toml:"test"`
}

type fileTest struct {
	Name           string              `yaml:"name" toml:"name"`
	URL            string              `yaml:"url" toml:"url"`
	InitURL        string              `yaml:"init_url" toml:"init_url"`
	Cycles         *int                `yaml:"cycles" toml:"cycles"`
	Timeout        *float64            `yaml:"timeout" toml:"timeout"`
	InitTimeout    *float64            `yaml:"init_timeout" toml:"init_timeout"`
	Resolution     *float64            `yaml:"resolution" toml:"resolution"`
	ProfilePath    string              `yaml:"profile_path" toml:"profile_path"`
	Shutdown       bool                `yaml:"shutdown" toml:"shutdown"`
	Responsiveness bool                `yaml:"responsiveness" toml:"responsiveness"`
	Counters       map[string][]string `yaml:"counters" toml:"counters"`
	XperfCounters  []string            `yaml:"xperf_counters" toml:"xperf_counters"`
	Preferences    map[string]any      `yaml:"preferences" toml:"preferences"`
	Extensions     []string            `yaml:"extensions" toml:"extensions"`
}
