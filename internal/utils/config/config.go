package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/dotflow/refill-backend/internal/consts"
	"github.com/dotflow/refill-backend/internal/types/environments"
)

type AppConfig struct {
	Environment    environments.Environment
	ApiServer      ApiServerConfig
	Postgres       DBConnection
	Blockchain     BlockchainConfig
	Indexer        IndexerConfig
	Webhook        WebhookConfig
	WorkerInterval string
}

type ApiServerConfig struct {
	AllowedOrigins string
}

type DBConnection struct {
	Host string
	Port string
	User string
	Name string
	Pass string

	SSLMode string
}

type BlockchainConfig struct {
	HydrationRPCEndpoint string
	EthereumRPCEndpoint  string
	WETHContractAddress  string
	SubmitterURL         string

	// ParachainRPCEndpoints maps destination chain id to its RPC endpoint,
	// read from SUBSTRATE_RPC_URL_<CHAIN> variables. Chains without an
	// endpoint lose destination balance reads and nonce repair; resolution
	// degrades to an unconditional swap for them.
	ParachainRPCEndpoints map[string]string

	// SignerAddress is this service's own co-signer; CoSigners are the
	// other multisig participants.
	SignerAddress     string
	CoSigners         []string
	MultisigThreshold int
}

type IndexerConfig struct {
	// BaseURLs maps chain id to that family's indexer endpoint, read from
	// INDEXER_URL_<CHAIN> variables.
	BaseURLs map[string]string
}

type WebhookConfig struct {
	QueueURL string
}

func New() *AppConfig {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Loads .env.<env> without overriding variables already present.
	godotenv.Load(".env." + env)

	indexerURLs := map[string]string{}
	parachainRPCs := map[string]string{}
	for _, chain := range []string{
		consts.ChainCrust, consts.ChainKilt, consts.ChainPhala,
		consts.ChainAcurast, consts.ChainAstar, consts.ChainUnique,
		consts.ChainEthereum,
	} {
		if url := os.Getenv("INDEXER_URL_" + strings.ToUpper(chain)); url != "" {
			indexerURLs[chain] = url
		}
		if chain == consts.ChainEthereum {
			continue
		}
		if url := os.Getenv("SUBSTRATE_RPC_URL_" + strings.ToUpper(chain)); url != "" {
			parachainRPCs[chain] = url
		}
	}

	return &AppConfig{
		Environment: environments.Parse(env),
		ApiServer: ApiServerConfig{
			AllowedOrigins: os.Getenv("ALLOWED_ORIGINS"),
		},
		Postgres: DBConnection{
			Host:    os.Getenv("DB_HOST"),
			Port:    os.Getenv("DB_PORT"),
			User:    os.Getenv("DB_USER"),
			Name:    os.Getenv("DB_NAME"),
			Pass:    os.Getenv("DB_PASS"),
			SSLMode: os.Getenv("DB_SSL_MODE"),
		},
		Blockchain: BlockchainConfig{
			HydrationRPCEndpoint:  os.Getenv("HYDRATION_RPC_ENDPOINT"),
			EthereumRPCEndpoint:   os.Getenv("ETHEREUM_RPC_ENDPOINT"),
			WETHContractAddress:   os.Getenv("WETH_CONTRACT_ADDRESS"),
			SubmitterURL:          os.Getenv("CHAIN_SUBMITTER_URL"),
			ParachainRPCEndpoints: parachainRPCs,
			SignerAddress:         os.Getenv("MULTISIG_SIGNER_ADDRESS"),
			CoSigners:             splitNonEmpty(os.Getenv("MULTISIG_CO_SIGNERS"), ","),
			MultisigThreshold:     envVarAtoi("MULTISIG_THRESHOLD", 2),
		},
		Indexer: IndexerConfig{
			BaseURLs: indexerURLs,
		},
		Webhook: WebhookConfig{
			QueueURL: os.Getenv("WEBHOOK_QUEUE_URL"),
		},
		WorkerInterval: os.Getenv("WORKER_INTERVAL"),
	}
}

func splitNonEmpty(value, sep string) []string {
	var out []string
	for _, part := range strings.Split(value, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func envVarAtoi(envName string, fallback int) int {
	valueStr := os.Getenv(envName)
	if valueStr == "" {
		return fallback
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return fallback
	}
	return value
}
