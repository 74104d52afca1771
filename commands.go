package main

import (
	"bufio"
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/MixinNetwork/metatales/config"
	"github.com/MixinNetwork/metatales/indexer"
	"github.com/MixinNetwork/metatales/nft"
	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
)

func (a *app) mintCmd() *cobra.Command {
	var caller, to, uri, recipient, percent string
	cmd := &cobra.Command{
		Use:   "mint",
		Short: "Mint a literary work, with its own royalty when --royalty is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := config.ParseAddress(caller)
			if err != nil {
				return err
			}
			owner, err := config.ParseAddress(to)
			if err != nil {
				return err
			}
			var id uint64
			if percent == "" {
				id, err = a.registry.MintWithDefaultRoyalty(cmd.Context(), from, owner, uri)
			} else {
				var royalty nft.Royalty
				royalty, err = parseRoyalty(recipient, percent)
				if err != nil {
					return err
				}
				id, err = a.registry.Mint(cmd.Context(), from, owner, uri, royalty.Recipient, royalty.Fraction)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&caller, "caller", "", "transaction sender address")
	cmd.Flags().StringVar(&to, "to", "", "token owner address")
	cmd.Flags().StringVar(&uri, "uri", "", "metadata URI")
	cmd.Flags().StringVar(&recipient, "recipient", "", "royalty recipient address")
	cmd.Flags().StringVar(&percent, "royalty", "", "royalty percent, e.g. 2.5")
	return cmd
}

func (a *app) burnCmd() *cobra.Command {
	var caller string
	var id uint64
	cmd := &cobra.Command{
		Use:   "burn",
		Short: "Burn a token",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := config.ParseAddress(caller)
			if err != nil {
				return err
			}
			return a.registry.Burn(cmd.Context(), from, id)
		},
	}
	cmd.Flags().StringVar(&caller, "caller", "", "transaction sender address")
	cmd.Flags().Uint64Var(&id, "token", 0, "token id")
	return cmd
}

func (a *app) transferCmd() *cobra.Command {
	var caller, from, to string
	var id uint64
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Transfer a token",
		RunE: func(cmd *cobra.Command, args []string) error {
			addrs, err := parseAddresses(caller, from, to)
			if err != nil {
				return err
			}
			return a.registry.TransferFrom(cmd.Context(), addrs[0], addrs[1], addrs[2], id)
		},
	}
	cmd.Flags().StringVar(&caller, "caller", "", "transaction sender address")
	cmd.Flags().StringVar(&from, "from", "", "current owner address")
	cmd.Flags().StringVar(&to, "to", "", "receiver address")
	cmd.Flags().Uint64Var(&id, "token", 0, "token id")
	return cmd
}

func (a *app) approveCmd() *cobra.Command {
	var caller, to, operator string
	var id uint64
	var revoke bool
	cmd := &cobra.Command{
		Use:   "approve",
		Short: "Approve an address for one token, or an operator for all tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := config.ParseAddress(caller)
			if err != nil {
				return err
			}
			if operator != "" {
				op, err := config.ParseAddress(operator)
				if err != nil {
					return err
				}
				return a.registry.SetApprovalForAll(cmd.Context(), from, op, !revoke)
			}
			spender := common.Address{}
			if !revoke {
				spender, err = config.ParseAddress(to)
				if err != nil {
					return err
				}
			}
			return a.registry.Approve(cmd.Context(), from, spender, id)
		},
	}
	cmd.Flags().StringVar(&caller, "caller", "", "transaction sender address")
	cmd.Flags().StringVar(&to, "to", "", "approved address")
	cmd.Flags().StringVar(&operator, "operator", "", "operator address for all tokens")
	cmd.Flags().Uint64Var(&id, "token", 0, "token id")
	cmd.Flags().BoolVar(&revoke, "revoke", false, "revoke instead of grant")
	return cmd
}

func (a *app) royaltyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "royalty",
		Short: "Query and change royalties",
	}

	var infoId uint64
	var price string
	info := &cobra.Command{
		Use:   "info",
		Short: "Resolve the royalty of a sale",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, ok := new(big.Int).SetString(price, 10)
			if !ok || p.Sign() < 0 {
				return fmt.Errorf("invalid sale price %q", price)
			}
			recipient, amount := a.registry.RoyaltyInfo(infoId, p)
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", recipient.Hex(), amount)
			return nil
		},
	}
	info.Flags().Uint64Var(&infoId, "token", 0, "token id")
	info.Flags().StringVar(&price, "price", "0", "sale price in the smallest unit")

	var caller, recipient, percent string
	var setId uint64
	set := &cobra.Command{
		Use:   "set",
		Short: "Override the royalty of a token",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := config.ParseAddress(caller)
			if err != nil {
				return err
			}
			royalty, err := parseRoyalty(recipient, percent)
			if err != nil {
				return err
			}
			return a.registry.SetTokenRoyalty(cmd.Context(), from, setId, royalty.Recipient, royalty.Fraction)
		},
	}
	set.Flags().Uint64Var(&setId, "token", 0, "token id")

	fallback := &cobra.Command{
		Use:   "default",
		Short: "Replace the collection default royalty",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := config.ParseAddress(caller)
			if err != nil {
				return err
			}
			royalty, err := parseRoyalty(recipient, percent)
			if err != nil {
				return err
			}
			return a.registry.SetDefaultRoyalty(cmd.Context(), from, royalty.Recipient, royalty.Fraction)
		},
	}
	for _, c := range []*cobra.Command{set, fallback} {
		c.Flags().StringVar(&caller, "caller", "", "transaction sender address")
		c.Flags().StringVar(&recipient, "recipient", "", "royalty recipient address")
		c.Flags().StringVar(&percent, "royalty", "", "royalty percent, e.g. 2.5")
	}

	cmd.AddCommand(info, set, fallback)
	return cmd
}

func (a *app) tokenCmd() *cobra.Command {
	var id uint64
	var owner string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Show a token, or every token of --owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if owner != "" {
				addr, err := config.ParseAddress(owner)
				if err != nil {
					return err
				}
				for _, id := range a.registry.TokensOfOwner(addr) {
					fmt.Fprintf(out, "%d\n", id)
				}
				return nil
			}
			holder, err := a.registry.OwnerOf(id)
			if err != nil {
				return err
			}
			uri, err := a.registry.TokenURI(id)
			if err != nil {
				return err
			}
			royalty := a.registry.GetDefaultRoyalty()
			source := "default"
			if r := a.registry.GetTokenRoyalty(id); r != nil {
				royalty, source = *r, "override"
			}
			fmt.Fprintf(out, "id: %d\nowner: %s\nuri: %s\nroyalty: %s (%s)\n", id, holder.Hex(), uri, royalty, source)
			return nil
		},
	}
	cmd.Flags().Uint64Var(&id, "id", 0, "token id")
	cmd.Flags().StringVar(&owner, "owner", "", "list the tokens of this address")
	return cmd
}

func (a *app) ownerCmd() *cobra.Command {
	var caller, to string
	cmd := &cobra.Command{
		Use:   "owner",
		Short: "Show the registry, or hand its ownership to --to",
		RunE: func(cmd *cobra.Command, args []string) error {
			if to != "" {
				addrs, err := parseAddresses(caller, to)
				if err != nil {
					return err
				}
				return a.registry.TransferOwnership(cmd.Context(), addrs[0], addrs[1])
			}
			r := a.registry
			fmt.Fprintf(cmd.OutOrStdout(), "name: %s\nsymbol: %s\nowner: %s\ndefault royalty: %s\nminted: %d\nsupply: %d\nsequence: %d\n",
				r.Name(), r.Symbol(), r.Owner().Hex(), r.GetDefaultRoyalty(), r.TotalMinted(), r.TotalSupply(), r.Sequence())
			return nil
		},
	}
	cmd.Flags().StringVar(&caller, "caller", "", "transaction sender address")
	cmd.Flags().StringVar(&to, "to", "", "new registry owner")
	return cmd
}

func (a *app) txCmd() *cobra.Command {
	var trace string
	var seq uint64
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Show a committed transaction by --trace or --seq",
		RunE: func(cmd *cobra.Command, args []string) error {
			var tx *nft.Transaction
			var err error
			switch {
			case trace != "":
				tx, err = a.store.ReadTransactionByTrace(trace)
			case seq > 0:
				tx, err = a.store.ReadTransaction(seq)
			default:
				return fmt.Errorf("either --trace or --seq is required")
			}
			if err != nil {
				return err
			}
			if tx == nil {
				return fmt.Errorf("transaction not found %s%d", trace, seq)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "sequence: %d\ntrace: %s\ncaller: %s\ncreated: %s\n",
				tx.Sequence, tx.TraceId, tx.Caller.Hex(), tx.CreatedAt.UTC().Format(time.RFC3339Nano))
			for _, evt := range tx.Events {
				fmt.Fprintf(out, "event: %s\n", formatEvent(evt))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&trace, "trace", "", "transaction trace id")
	cmd.Flags().Uint64Var(&seq, "seq", 0, "transaction sequence")
	return cmd
}

func (a *app) indexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Log every event committed since the last run",
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := a.activityIndexer()
			if err != nil {
				return err
			}
			ckpt, err := idx.Drain(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\n", ckpt)
			return nil
		},
	}
}

// shellCmd keeps the store open and runs one command per stdin line, while
// the activity indexer follows the journal in the background. Badger locks
// its directory, so this is the only way to index while minting.
func (a *app) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run registry commands read from stdin while indexing the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			idx, err := a.activityIndexer()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			done := make(chan struct{})
			go func() {
				idx.Run(ctx)
				close(done)
			}()

			a.shell = true
			err = a.runLines(cmd)
			a.shell = false
			cancel()
			<-done
			if err != nil {
				return err
			}
			_, err = idx.Drain(cmd.Context())
			return err
		},
	}
}

func (a *app) runLines(cmd *cobra.Command) error {
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		args := strings.Fields(line)
		if args[0] == "shell" {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: nested shell\n", line)
			continue
		}
		sub := newRootCmd(a)
		sub.SetArgs(args)
		sub.SetOut(cmd.OutOrStdout())
		sub.SetErr(cmd.ErrOrStderr())
		err := sub.ExecuteContext(cmd.Context())
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", line, err)
		}
	}
	return scanner.Err()
}

func (a *app) activityIndexer() (*indexer.Indexer, error) {
	idx, err := indexer.New("activity", a.store, a.conf.Indexer.Batch, a.conf.IndexerInterval())
	if err != nil {
		return nil, err
	}
	idx.AddWorker(NewActivityWorker(a.registry))
	return idx, nil
}

func formatEvent(evt *nft.Event) string {
	switch evt.Kind {
	case nft.EventCollection:
		return fmt.Sprintf("%s %s %s", evt.Kind, evt.Name, evt.Symbol)
	case nft.EventOwnershipTransferred:
		return fmt.Sprintf("%s %s -> %s", evt.Kind, evt.From.Hex(), evt.To.Hex())
	case nft.EventDefaultRoyaltySet:
		return fmt.Sprintf("%s %s@%s", evt.Kind, evt.Recipient.Hex(), evt.Fraction)
	case nft.EventTransfer:
		return fmt.Sprintf("%s #%d %s -> %s", evt.Kind, evt.TokenId, evt.From.Hex(), evt.To.Hex())
	case nft.EventMint:
		source := "default"
		if evt.Override {
			source = "override"
		}
		return fmt.Sprintf("%s #%d %s %s %s@%s (%s)", evt.Kind, evt.TokenId, evt.To.Hex(), evt.URI, evt.Recipient.Hex(), evt.Fraction, source)
	case nft.EventRoyaltySet:
		return fmt.Sprintf("%s #%d %s@%s", evt.Kind, evt.TokenId, evt.Recipient.Hex(), evt.Fraction)
	case nft.EventApproval:
		return fmt.Sprintf("%s #%d %s approves %s", evt.Kind, evt.TokenId, evt.From.Hex(), evt.To.Hex())
	case nft.EventApprovalForAll:
		return fmt.Sprintf("%s %s operator %s %t", evt.Kind, evt.From.Hex(), evt.To.Hex(), evt.Approved)
	}
	return evt.Kind
}

func parseRoyalty(recipient, percent string) (nft.Royalty, error) {
	addr, err := config.ParseAddress(recipient)
	if err != nil {
		return nft.Royalty{}, err
	}
	fraction, err := nft.ParseFraction(percent)
	if err != nil {
		return nft.Royalty{}, err
	}
	return nft.Royalty{Recipient: addr, Fraction: fraction}, nil
}

func parseAddresses(ss ...string) ([]common.Address, error) {
	addrs := make([]common.Address, len(ss))
	for i, s := range ss {
		addr, err := config.ParseAddress(s)
		if err != nil {
			return nil, err
		}
		addrs[i] = addr
	}
	return addrs, nil
}
