package cmd

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/wesm/textvault/internal/contacts"
	"github.com/wesm/textvault/internal/query"
	"github.com/wesm/textvault/internal/store"
)

var noContacts bool

// archive bundles the open databases behind one query engine.
type archive struct {
	chat   *store.Store
	ab     *store.Store // nil when contacts are not loaded
	book   *contacts.Book
	engine *query.SQLiteEngine
}

// openArchive opens chat.db and, unless disabled, the AddressBook. The two
// are opened concurrently. A missing AddressBook is only fatal when its
// path was configured explicitly.
func openArchive(ctx context.Context) (*archive, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	opts := store.Options{
		TempDir: cfg.Data.TempDir,
		NoCopy:  cfg.Data.NoCopy,
		Logger:  logger,
	}

	a := &archive{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := store.Open(gctx, cfg.Data.ChatDB, opts)
		if err != nil {
			return fmt.Errorf("open message database: %w", err)
		}
		a.chat = s
		return nil
	})
	if !noContacts {
		g.Go(func() error {
			s, book, err := openContacts(gctx, opts)
			if err != nil {
				return err
			}
			a.ab, a.book = s, book
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		a.Close()
		return nil, err
	}

	engineOpts := []query.Option{
		query.WithLogger(logger),
		query.WithLocation(loc),
		query.WithDefaultLimit(cfg.Search.DefaultLimit),
	}
	if a.book != nil {
		engineOpts = append(engineOpts, query.WithSenderResolver(a.book.Resolver()))
		logger.Debug("loaded contacts", "summary", a.book.Summary())
	}
	a.engine = query.NewSQLiteEngine(a.chat.DB(), engineOpts...)
	if a.chat.IsCopy() {
		logger.Debug("reading a temporary copy of the message database", "source", a.chat.Source())
	}
	return a, nil
}

// openContacts returns a nil store and book when the AddressBook cannot be
// found and none was configured.
func openContacts(ctx context.Context, opts store.Options) (*store.Store, *contacts.Book, error) {
	path, err := contacts.Locate(cfg.Data.AddressBook)
	if err != nil {
		if errors.Is(err, contacts.ErrNotFound) && cfg.Data.AddressBook == "" {
			logger.Debug("no address book found; showing raw handles", "error", err)
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("locate address book: %w", err)
	}

	s, err := store.Open(ctx, path, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("open address book: %w", err)
	}
	book, err := contacts.Load(ctx, s.DB())
	if err != nil {
		s.Close()
		return nil, nil, fmt.Errorf("load contacts: %w", err)
	}
	return s, book, nil
}

// Close releases both databases and any temporary copies.
func (a *archive) Close() error {
	var errs []error
	if a.engine != nil {
		errs = append(errs, a.engine.Close())
	}
	if a.chat != nil {
		errs = append(errs, a.chat.Close())
	}
	if a.ab != nil {
		errs = append(errs, a.ab.Close())
	}
	return errors.Join(errs...)
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noContacts, "no-contacts", false, "do not load the AddressBook; show raw handles")
}
