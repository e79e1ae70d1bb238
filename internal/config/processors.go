package config

import (
	_ "github.com/asset-pipe/asset-pipe/internal/pipeline/processor/javascript"
	_ "github.com/asset-pipe/asset-pipe/internal/pipeline/processor/raw"
	_ "github.com/asset-pipe/asset-pipe/internal/pipeline/processor/stylesheet"
)
