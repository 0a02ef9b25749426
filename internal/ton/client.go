package ton

import (
	"context"
	"fmt"
	"strings"

	"github.com/xssnick/tonutils-go/liteclient"
	liteapi "github.com/xssnick/tonutils-go/ton"
	"go.uber.org/zap"
)

type LiteServerConfig struct {
	Network string // mainnet/testnet
	Host    string
	Port    int
	Key     string
}

// Connect opens a lite-server connection pool. With Host and Key set it dials
// that server directly, otherwise servers come from the global network config.
func Connect(ctx context.Context, cfg LiteServerConfig, log *zap.Logger) (liteapi.APIClientWrapped, error) {
	client := liteclient.NewConnectionPool()

	if cfg.Host != "" && cfg.Key != "" {
		addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		log.Info("connecting to lite server", zap.String("addr", addr))
		if err := client.AddConnection(ctx, addr, cfg.Key); err != nil {
			return nil, fmt.Errorf("connect to lite server %s: %w", addr, err)
		}
	} else {
		configURL := globalConfigURL(cfg.Network)
		log.Info("connecting via global config", zap.String("url", configURL), zap.String("network", cfg.Network))
		if err := client.AddConnectionsFromConfigUrl(ctx, configURL); err != nil {
			return nil, fmt.Errorf("connect via config %s: %w", configURL, err)
		}
	}

	policy := liteapi.ProofCheckPolicyFast
	if isMainnet(cfg.Network) {
		policy = liteapi.ProofCheckPolicySecure
	}

	return liteapi.NewAPIClient(client, policy).WithRetry(), nil
}

func globalConfigURL(network string) string {
	if isMainnet(network) {
		return "https://ton.org/global.config.json"
	}
	return "https://ton.org/testnet-global.config.json"
}

func isMainnet(network string) bool {
	return strings.EqualFold(network, "mainnet")
}
