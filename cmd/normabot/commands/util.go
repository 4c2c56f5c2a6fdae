package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/normacomex/normabot/pkg/chat"
	"github.com/normacomex/normabot/pkg/cli"
	"github.com/normacomex/normabot/pkg/geminilive"
	"github.com/normacomex/normabot/pkg/kv"
	"github.com/normacomex/normabot/pkg/norms"
	"github.com/normacomex/normabot/pkg/storage"
)

func loadRequest(path string, v any) error {
	return cli.LoadRequest(path, v)
}

func appPaths() (*cli.Paths, error) {
	return cli.NewPaths(appName)
}

// createLiveClient builds a Gemini Live client from the context. transport
// overrides the context's transport when set.
func createLiveClient(ctx *cli.Context, transport string) (*geminilive.Client, error) {
	if ctx.APIKey == "" {
		return nil, fmt.Errorf("context %q has no api key", ctx.Name)
	}
	if transport == "" {
		transport = ctx.GetExtra(cli.ExtraTransport)
	}
	t, err := geminilive.ParseTransport(transport)
	if err != nil {
		return nil, err
	}
	opts := []geminilive.Option{geminilive.WithTransport(t)}
	if ctx.BaseURL != "" {
		opts = append(opts, geminilive.WithWebSocketURL(ctx.BaseURL))
	}
	return geminilive.NewClient(ctx.APIKey, opts...), nil
}

// createGenerator builds the text chat backend selected by provider, or by
// the context's chat_provider.
func createGenerator(cctx context.Context, ctx *cli.Context, provider, model string) (chat.Generator, error) {
	if provider == "" {
		provider = ctx.ExtraOr(cli.ExtraChatProvider, chat.ProviderGemini)
	}
	if model == "" {
		model = ctx.GetExtra(cli.ExtraChatModel)
	}
	switch provider {
	case chat.ProviderGemini:
		return chat.NewGemini(cctx, ctx.APIKey, chat.WithModel(model))
	case chat.ProviderOpenAI:
		return chat.NewOpenAI(ctx.GetExtra(cli.ExtraOpenAIKey),
			chat.WithModel(model),
			chat.WithBaseURL(ctx.GetExtra(cli.ExtraOpenAIBaseURL)))
	}
	return nil, fmt.Errorf("unknown chat provider %q (want gemini or openai)", provider)
}

// openCatalog opens the catalog database, seeding it on first use. With
// inMemory the catalog lives only for this process.
func openCatalog(cctx context.Context, inMemory bool) (*norms.Store, func(), error) {
	opts := kv.BadgerOptions{InMemory: inMemory}
	if !inMemory {
		paths, err := appPaths()
		if err != nil {
			return nil, nil, err
		}
		dir, err := cli.Ensure(filepath.Join(paths.DataDir(), "catalog"))
		if err != nil {
			return nil, nil, err
		}
		opts.Dir = dir
	}
	db, err := kv.NewBadger(opts)
	if err != nil {
		return nil, nil, err
	}
	store := norms.NewStore(db)
	if err := store.EnsureSeeded(cctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, func() { db.Close() }, nil
}

// createFileStore returns the S3 store when s3_bucket is configured, and a
// local directory store otherwise.
func createFileStore(ctx *cli.Context) (storage.FileStore, error) {
	if bucket := ctx.GetExtra(cli.ExtraS3Bucket); bucket != "" {
		client := storage.NewS3Client(storage.S3Config{
			Region:    ctx.GetExtra(cli.ExtraS3Region),
			Endpoint:  ctx.GetExtra(cli.ExtraS3Endpoint),
			AccessKey: ctx.GetExtra(cli.ExtraS3AccessKey),
			SecretKey: ctx.GetExtra(cli.ExtraS3SecretKey),
		})
		return storage.NewS3(client, bucket, ctx.GetExtra(cli.ExtraS3Prefix), ctx.GetExtra(cli.ExtraPublicBaseURL)), nil
	}
	dir, err := exportDir(ctx)
	if err != nil {
		return nil, err
	}
	return storage.NewLocal(dir, ctx.GetExtra(cli.ExtraPublicBaseURL))
}

func exportDir(ctx *cli.Context) (string, error) {
	if dir := ctx.GetExtra(cli.ExtraExportDir); dir != "" {
		return dir, nil
	}
	paths, err := appPaths()
	if err != nil {
		return "", err
	}
	return paths.ExportDir(), nil
}
