package config

import (
	"path/filepath"
	"time"

	"github.com/kashguard/go-tee-verifier/internal/util"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/subosito/gotenv"
)

const (
	// DefaultExpectationsTTL is how long resolved hardware reference values stay fresh.
	DefaultExpectationsTTL = 5 * time.Minute
	// DefaultMetadataSource labels metadata extracted from the inference provider.
	DefaultMetadataSource = "near-ai-cloud"
	// DefaultOrigin is used by the prefetcher when no other base URL is configured.
	DefaultOrigin = "http://localhost:3000"
)

type EchoServer struct {
	ListenAddress  string
	Debug          bool
	RequestTimeout time.Duration
}

type LoggerServer struct {
	Level              zerolog.Level
	RequestLevel       zerolog.Level
	PrettyPrintConsole bool
}

type Redis struct {
	// URL enables the redis backed session store when set, e.g. redis://localhost:6379/0
	URL        string
	KeyPrefix  string
	SessionTTL time.Duration
}

type Verification struct {
	CloudAPIKey     string
	CloudAPIBaseURL string
	ReportTimeout   time.Duration
	PrefetchTimeout time.Duration
	ExpectationsTTL time.Duration
	ProofPath       string

	// Base URL candidates for the proof backend, in resolution order after an explicit origin hint.
	PublicSiteURL string
	AppBaseURL    string
	DeploymentURL string
	DefaultOrigin string

	// TrustedOrigins are additional origins a caller may name as hint. Hints matching none of the
	// configured origins are ignored.
	TrustedOrigins []string

	CPUAttestationRequired    bool
	IntelTrustAuthorityAPIKey string

	// ServerContext gates effectful metadata normalization (eager session registration).
	ServerContext  bool
	MetadataSource string
}

// CPUAttestationConfigured reports whether the deployment has credentials to perform CPU attestation.
func (v Verification) CPUAttestationConfigured() bool {
	return len(v.IntelTrustAuthorityAPIKey) > 0
}

type Management struct {
	LivenessTimeout  time.Duration
	ReadinessTimeout time.Duration
}

type Server struct {
	Echo         EchoServer
	Logger       LoggerServer
	Redis        Redis
	Verification Verification
	Management   Management
}

// DefaultServiceConfigFromEnv returns the server config as parsed from environment variables
// and their respective defaults defined below.
// We don't expect that ENV_VARs change while we are running our application or our tests
// (and it would be a bad thing to do anyways with parallel testing).
func DefaultServiceConfigFromEnv() Server {
	// An `.env.local` file in your project root can override the currently set ENV variables.
	if !util.RunningInTest() {
		envFile := filepath.Join(util.GetProjectRootDir(), ".env.local")
		if err := gotenv.OverLoad(envFile); err != nil {
			log.Debug().Err(err).Str("path", envFile).Msg("No .env.local file loaded")
		}
	}

	return Server{
		Echo: EchoServer{
			ListenAddress:  util.GetEnv("SERVER_ECHO_LISTEN_ADDRESS", ":8080"),
			Debug:          util.GetEnvAsBool("SERVER_ECHO_DEBUG", false),
			RequestTimeout: time.Second * time.Duration(util.GetEnvAsInt("SERVER_ECHO_REQUEST_TIMEOUT_SEC", 30)),
		},
		Logger: LoggerServer{
			Level:              util.LogLevelFromString(util.GetEnv("SERVER_LOGGER_LEVEL", zerolog.DebugLevel.String())),
			RequestLevel:       util.LogLevelFromString(util.GetEnv("SERVER_LOGGER_REQUEST_LEVEL", zerolog.DebugLevel.String())),
			PrettyPrintConsole: util.GetEnvAsBool("SERVER_LOGGER_PRETTY_PRINT_CONSOLE", false),
		},
		Redis: Redis{
			URL:        util.GetEnv("SERVER_REDIS_URL", ""),
			KeyPrefix:  util.GetEnv("SERVER_REDIS_KEY_PREFIX", "verification:session:"),
			SessionTTL: time.Second * time.Duration(util.GetEnvAsInt("SERVER_REDIS_SESSION_TTL_SEC", 0)),
		},
		Verification: Verification{
			CloudAPIKey:               util.GetEnv("NEARAI_CLOUD_API_KEY", ""),
			CloudAPIBaseURL:           util.GetEnv("NEARAI_CLOUD_API_BASE_URL", "https://cloud-api.near.ai"),
			ReportTimeout:             time.Second * time.Duration(util.GetEnvAsInt("VERIFICATION_REPORT_TIMEOUT_SEC", 10)),
			PrefetchTimeout:           time.Second * time.Duration(util.GetEnvAsInt("VERIFICATION_PREFETCH_TIMEOUT_SEC", 15)),
			ExpectationsTTL:           time.Second * time.Duration(util.GetEnvAsInt("VERIFICATION_EXPECTATIONS_TTL_SEC", int(DefaultExpectationsTTL/time.Second))),
			ProofPath:                 util.GetEnv("VERIFICATION_PROOF_PATH", "/api/verification/proof"),
			PublicSiteURL:             util.GetEnv("NEXT_PUBLIC_SITE_URL", ""),
			AppBaseURL:                util.GetEnv("APP_BASE_URL", ""),
			DeploymentURL:             util.GetEnv("VERCEL_URL", ""),
			DefaultOrigin:             util.GetEnv("VERIFICATION_DEFAULT_ORIGIN", DefaultOrigin),
			TrustedOrigins:            util.GetEnvAsStringArr("VERIFICATION_TRUSTED_ORIGINS", nil),
			CPUAttestationRequired:    util.GetEnvAsBool("VERIFICATION_CPU_ATTESTATION_REQUIRED", false),
			IntelTrustAuthorityAPIKey: util.GetEnv("INTEL_TRUST_AUTHORITY_API_KEY", ""),
			ServerContext:             util.GetEnvAsBool("VERIFICATION_SERVER_CONTEXT", true),
			MetadataSource:            util.GetEnv("VERIFICATION_METADATA_SOURCE", DefaultMetadataSource),
		},
		Management: Management{
			LivenessTimeout:  time.Second * time.Duration(util.GetEnvAsInt("SERVER_MANAGEMENT_LIVENESS_TIMEOUT_SEC", 5)),
			ReadinessTimeout: time.Second * time.Duration(util.GetEnvAsInt("SERVER_MANAGEMENT_READINESS_TIMEOUT_SEC", 4)),
		},
	}
}
