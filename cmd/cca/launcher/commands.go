package launcher

import (
	"context"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/urfave/cli.v1"

	"github.com/rony4d/go-cca-client/cca/contracts/auction"
	"github.com/rony4d/go-cca-client/cca/contracts/factory"
	"github.com/rony4d/go-cca-client/cca/price"
	"github.com/rony4d/go-cca-client/cca/steps"
	"github.com/rony4d/go-cca-client/flags"
	"github.com/rony4d/go-cca-client/integration"
)

// backend is the part of a node client the commands use.
type backend interface {
	bind.ContractCaller
	BlockNumber(ctx context.Context) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
	Close()
}

// dial opens the RPC connection. Tests replace it.
var dial = func(ctx context.Context, url string) (backend, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func commands() []cli.Command {
	cmds := []cli.Command{
		{
			Name:   "steps",
			Usage:  "Encode the linear step schedule for an auction length",
			Flags:  flags.ScheduleFlags(),
			Action: action(stepsCmd),
		},
		{
			Name:   "decode-steps",
			Usage:  "Decode auction steps data",
			Flags:  []cli.Flag{flags.StepsDataFlag},
			Action: action(decodeStepsCmd),
		},
		{
			Name:   "create",
			Usage:  "Build the factory transaction creating an auction",
			Flags:  flags.CreateFlags(),
			Action: action(createCmd),
		},
		{
			Name:   "bid",
			Usage:  "Build a submitBid transaction, checking the price against the live auction",
			Flags:  flags.BidFlags(),
			Action: action(bidCmd),
		},
		{
			Name:   "exit",
			Usage:  "Build the transaction exiting a bid",
			Flags:  flags.ExitFlags(),
			Action: action(exitCmd),
		},
		{
			Name:   "claim",
			Usage:  "Build the transaction claiming the tokens of a bid",
			Flags:  []cli.Flag{flags.AuctionFlag, flags.BidIDFlag},
			Action: action(claimCmd),
		},
		{
			Name:   "checkpoint",
			Usage:  "Build the transaction checkpointing an auction",
			Flags:  []cli.Flag{flags.AuctionFlag},
			Action: action(checkpointCmd),
		},
		{
			Name:   "sweep",
			Usage:  "Build the transaction sweeping raised currency or unsold tokens",
			Flags:  []cli.Flag{flags.AuctionFlag, flags.SweepTokensFlag},
			Action: action(sweepCmd),
		},
		{
			Name:   "status",
			Usage:  "Show the state and phase of an auction",
			Flags:  flags.Merge([]cli.Flag{flags.AuctionFlag}, flags.DecimalsFlags()),
			Action: action(statusCmd),
		},
		{
			Name:   "networks",
			Usage:  "List the network presets",
			Action: action(networksCmd),
		},
	}
	for i := range cmds {
		cmds[i].OnUsageError = onUsageError
	}
	return cmds
}

func onUsageError(ctx *cli.Context, err error, isSubcommand bool) error {
	return &usageError{err: err}
}

// env is what every command gets besides its flags.
type env struct {
	cfg     Config
	log     *logrus.Logger
	out     printer
	chainID uint64
}

func newEnv(ctx *cli.Context) (*env, error) {
	cfg, err := MakeAllConfigs(ctx)
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg.Logging, ctx.App.ErrWriter)
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:     cfg,
		log:     log,
		out:     printer{format: cfg.Output.Format, w: ctx.App.Writer},
		chainID: cfg.Network.ChainID,
	}, nil
}

func action(fn func(*cli.Context, *env) error) func(*cli.Context) error {
	return func(ctx *cli.Context) error {
		if ctx.NArg() > 0 {
			return &usageError{err: errors.Errorf("unexpected arguments %v", []string(ctx.Args()))}
		}
		e, err := newEnv(ctx)
		if err != nil {
			return err
		}

		err = fn(ctx, e)
		switch ExitCode(err) {
		case ExitOK:
		case ExitInput:
			e.log.WithError(err).WithField("command", ctx.Command.Name).Debug("Command rejected")
		default:
			e.log.WithError(err).WithField("command", ctx.Command.Name).Error("Command failed")
		}
		return err
	}
}

// session is an open node connection. Its context bounds every call of the command.
type session struct {
	ctx    context.Context
	cancel context.CancelFunc
	node   backend
}

func (e *env) connect() (*session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), e.cfg.RPC.Timeout)
	log := e.log.WithField("rpc", e.cfg.RPC.URL)

	log.Debug("Connecting")
	node, err := dial(ctx, e.cfg.RPC.URL)
	if err != nil {
		cancel()
		return nil, asRPC(errors.Wrapf(err, "dial %s", e.cfg.RPC.URL))
	}
	id, err := node.ChainID(ctx)
	if err != nil {
		node.Close()
		cancel()
		return nil, asRPC(errors.Wrap(err, "read chain id"))
	}
	if !id.IsUint64() {
		node.Close()
		cancel()
		return nil, asRPC(errors.Errorf("chain id %s does not fit in 64 bits", id))
	}
	if id.Uint64() != e.chainID {
		log.WithFields(logrus.Fields{
			"network": e.cfg.Network.Name,
			"want":    e.chainID,
			"got":     id,
		}).Warn("Node chain ID differs from the selected network")
		e.chainID = id.Uint64()
	}
	return &session{ctx: ctx, cancel: cancel, node: node}, nil
}

func (s *session) head() (uint64, error) {
	n, err := s.node.BlockNumber(s.ctx)
	if err != nil {
		return 0, asRPC(errors.Wrap(err, "read block number"))
	}
	return n, nil
}

func (s *session) state(e *env, addr common.Address) (auction.State, uint64, error) {
	reader, err := auction.NewReader(s.node, e.cfg.Reader.CacheSize, e.log)
	if err != nil {
		return auction.State{}, 0, err
	}
	st, err := reader.State(s.ctx, addr)
	if err != nil {
		return auction.State{}, 0, err
	}
	head, err := s.head()
	if err != nil {
		return auction.State{}, 0, err
	}
	return st, head, nil
}

func (s *session) Close() {
	s.node.Close()
	s.cancel()
}

// scheduleBlocks reads the auction length, converting --duration with the
// network's block time.
func (e *env) scheduleBlocks(ctx *cli.Context) (int64, error) {
	blocksSet := ctx.IsSet(flags.BlocksFlag.Name)
	durationSet := ctx.IsSet(flags.DurationFlag.Name)
	switch {
	case blocksSet && durationSet:
		return 0, invalid(flags.BlocksFlag.Name, "conflicts with --%s", flags.DurationFlag.Name)
	case blocksSet:
		return ctx.Int64(flags.BlocksFlag.Name), nil
	case durationSet:
		d := ctx.Duration(flags.DurationFlag.Name)
		blocks, err := e.cfg.Preset().BlocksFor(d)
		if err != nil {
			return 0, err
		}
		e.log.WithFields(logrus.Fields{
			"duration":  d,
			"blocktime": e.cfg.Network.BlockTime,
			"blocks":    blocks,
		}).Info("Converted duration to blocks")
		return blocks, nil
	}
	return 0, missing(flags.BlocksFlag.Name, flags.DurationFlag.Name)
}

// alignHuman rounds a price given in human units down to a tick. Raw Q96
// prices are used as given.
func (e *env) alignHuman(ctx *cli.Context, human cli.StringFlag, p, tick *big.Int) *big.Int {
	if stringArg(ctx, human) == "" || tick == nil || tick.Sign() == 0 {
		return p
	}
	aligned, err := price.AlignToTick(p, tick)
	if err != nil {
		return p
	}
	if aligned.Cmp(p) != 0 {
		e.log.WithFields(logrus.Fields{
			"flag":    human.Name,
			"price":   p,
			"aligned": aligned,
		}).Warn("Price rounded down to the tick spacing")
	}
	return aligned
}

func stepsCmd(ctx *cli.Context, e *env) error {
	blocks, err := e.scheduleBlocks(ctx)
	if err != nil {
		return err
	}
	sched, err := steps.Build(blocks)
	if err != nil {
		return err
	}
	data, err := sched.Encode()
	if err != nil {
		return err
	}

	res := newScheduleResult(sched, data)
	res.Complete = true
	if ctx.IsSet(flags.DurationFlag.Name) {
		res.Network = e.cfg.Network.Name
	}
	return e.out.print(res)
}

func decodeStepsCmd(ctx *cli.Context, e *env) error {
	raw, err := requireString(ctx, flags.StepsDataFlag)
	if err != nil {
		return err
	}
	data, err := steps.ParseHex(raw)
	if err != nil {
		return err
	}
	sched, err := steps.Decode(data)
	if err != nil {
		return err
	}

	res := newScheduleResult(sched, data)
	blocks := sched.TotalBlocks()
	if blocks.IsUint64() {
		err = sched.Validate(steps.TotalMPS, blocks.Uint64())
	} else {
		err = errors.Errorf("spans %s blocks", blocks.ToBig())
	}
	if err != nil {
		e.log.WithError(err).Warn("Schedule does not release exactly the full supply")
	}
	res.Complete = err == nil
	return e.out.print(res)
}

func (e *env) factoryAddress(ctx *cli.Context) (common.Address, error) {
	if stringArg(ctx, flags.FactoryFlag) != "" {
		return addressArg(ctx, flags.FactoryFlag, true)
	}
	if e.cfg.Factory.Address == "" {
		return common.Address{}, missing(flags.FactoryFlag.Name)
	}
	return common.HexToAddress(e.cfg.Factory.Address), nil
}

func createCmd(ctx *cli.Context, e *env) error {
	factoryAddr, err := e.factoryAddress(ctx)
	if err != nil {
		return err
	}
	token, err := addressArg(ctx, flags.TokenFlag, true)
	if err != nil {
		return err
	}
	supply, err := bigArg(ctx, flags.SupplyFlag, true)
	if err != nil {
		return err
	}
	if supply.Sign() == 0 {
		return invalid(flags.SupplyFlag.Name, "must be positive")
	}
	currency, err := addressArg(ctx, flags.CurrencyFlag, false)
	if err != nil {
		return err
	}
	tokensRecipient, err := addressArg(ctx, flags.TokensRecipientFlag, true)
	if err != nil {
		return err
	}
	fundsRecipient, err := addressArg(ctx, flags.FundsRecipientFlag, true)
	if err != nil {
		return err
	}
	hook, err := addressArg(ctx, flags.ValidationHookFlag, false)
	if err != nil {
		return err
	}
	tick, err := bigArg(ctx, flags.TickSpacingFlag, true)
	if err != nil {
		return err
	}
	currencyDecimals, tokenDecimals, err := decimalsArgs(ctx)
	if err != nil {
		return err
	}
	floor, err := priceArg(ctx, flags.FloorPriceFlag, flags.FloorPriceQ96Flag, currencyDecimals, tokenDecimals)
	if err != nil {
		return err
	}
	floor = e.alignHuman(ctx, flags.FloorPriceFlag, floor, tick)
	required, err := bigArg(ctx, flags.RequiredRaiseFlag, false)
	if err != nil {
		return err
	}
	salt, err := hashArg(ctx, flags.SaltFlag)
	if err != nil {
		return err
	}
	sender, err := addressArg(ctx, flags.SenderFlag, false)
	if err != nil {
		return err
	}
	blocks, err := e.scheduleBlocks(ctx)
	if err != nil {
		return err
	}

	var sess *session
	if !ctx.IsSet(flags.StartBlockFlag.Name) || sender != (common.Address{}) {
		if sess, err = e.connect(); err != nil {
			return err
		}
		defer sess.Close()
	}

	start := ctx.Uint64(flags.StartBlockFlag.Name)
	if !ctx.IsSet(flags.StartBlockFlag.Name) {
		head, err := sess.head()
		if err != nil {
			return err
		}
		start = head + 1
		e.log.WithField("start", start).Info("Auction starts at the next block")
	}

	params, err := factory.NewAuctionParameters(factory.Config{
		Currency:               currency,
		TokensRecipient:        tokensRecipient,
		FundsRecipient:         fundsRecipient,
		StartBlock:             start,
		Duration:               blocks,
		ClaimDelay:             ctx.Uint64(flags.ClaimDelayFlag.Name),
		TickSpacing:            tick,
		ValidationHook:         hook,
		FloorPrice:             floor,
		RequiredCurrencyRaised: required,
	})
	if err != nil {
		return err
	}
	data, err := factory.InitializeDistribution(token, supply, params, salt)
	if err != nil {
		return err
	}
	sched, err := steps.Decode(params.AuctionStepsData)
	if err != nil {
		return err
	}

	res := txResult{
		ChainID: e.chainID,
		Method:  "initializeDistribution",
		TxRequest: auction.TxRequest{
			To:    factoryAddr,
			Value: (*hexutil.Big)(new(big.Int)),
			Data:  data,
		},
		Details: map[string]string{
			"token":       token.Hex(),
			"supply":      supply.String(),
			"currency":    currency.Hex(),
			"start block": strconv.FormatUint(params.StartBlock, 10),
			"end block":   strconv.FormatUint(params.EndBlock, 10),
			"claim block": strconv.FormatUint(params.ClaimBlock, 10),
			"floor price": params.FloorPrice.String(),
			"steps":       sched.String(),
			"steps data":  hexutil.Encode(params.AuctionStepsData),
		},
	}
	if sender != (common.Address{}) {
		predicted, err := factory.PredictAuctionAddress(sess.ctx, sess.node, factoryAddr, token, supply, params, salt, sender)
		if err != nil {
			return asRPC(errors.Wrap(err, "predict auction address"))
		}
		res.Details["auction"] = predicted.Hex()
	}
	return e.out.print(res)
}

func bidCmd(ctx *cli.Context, e *env) error {
	auctionAddr, err := addressArg(ctx, flags.AuctionFlag, true)
	if err != nil {
		return err
	}
	amount, err := bigArg(ctx, flags.AmountFlag, true)
	if err != nil {
		return err
	}
	owner, err := addressArg(ctx, flags.OwnerFlag, true)
	if err != nil {
		return err
	}
	hookData, err := bytesArg(ctx, flags.HookDataFlag)
	if err != nil {
		return err
	}
	currency, err := addressArg(ctx, flags.CurrencyFlag, false)
	if err != nil {
		return err
	}
	tick, err := bigArg(ctx, flags.TickSpacingFlag, false)
	if err != nil {
		return err
	}
	currencyDecimals, tokenDecimals, err := decimalsArgs(ctx)
	if err != nil {
		return err
	}
	maxPrice, err := priceArg(ctx, flags.MaxPriceFlag, flags.MaxPriceQ96Flag, currencyDecimals, tokenDecimals)
	if err != nil {
		return err
	}

	details := map[string]string{}
	if ctx.Bool(flags.OfflineFlag.Name) {
		maxPrice = e.alignHuman(ctx, flags.MaxPriceFlag, maxPrice, tick)
		details["validated"] = "false"
	} else {
		sess, err := e.connect()
		if err != nil {
			return err
		}
		defer sess.Close()

		st, head, err := sess.state(e, auctionAddr)
		if err != nil {
			return err
		}
		if phase := st.Phase(head); phase != auction.PhaseActive {
			return errors.Wrapf(ErrAuctionNotActive, "%s is %s at block %d", auctionAddr.Hex(), phase, head)
		}
		if stringArg(ctx, flags.CurrencyFlag) != "" && currency != st.Currency {
			e.log.WithField("currency", st.Currency.Hex()).Warn("Ignoring --currency, the auction sets its own")
		}
		if tick != nil && tick.Cmp(st.TickSpacing) != 0 {
			e.log.WithField("tick", st.TickSpacing).Warn("Ignoring --tick-spacing, the auction sets its own")
		}
		currency, tick = st.Currency, st.TickSpacing

		maxPrice = e.alignHuman(ctx, flags.MaxPriceFlag, maxPrice, tick)
		if err := price.ValidateMaxPrice(maxPrice, st.ClearingPrice, st.FloorPrice, tick); err != nil {
			return err
		}
		details["validated"] = "true"
		details["head"] = strconv.FormatUint(head, 10)
		details["clearing price"] = st.ClearingPrice.String()
	}

	tx, err := auction.SubmitBid(auction.BidRequest{
		Auction:  auctionAddr,
		Currency: currency,
		MaxPrice: maxPrice,
		Amount:   amount,
		Owner:    owner,
		HookData: hookData,
	})
	if err != nil {
		return err
	}
	details["max price"] = maxPrice.String()
	details["currency"] = currency.Hex()
	return e.out.print(txResult{ChainID: e.chainID, Method: "submitBid", TxRequest: tx, Details: details})
}

func exitCmd(ctx *cli.Context, e *env) error {
	auctionAddr, bidID, err := bidArgs(ctx)
	if err != nil {
		return err
	}
	if ctx.IsSet(flags.LastFilledFlag.Name) || ctx.IsSet(flags.OutbidFlag.Name) {
		tx, err := auction.ExitPartiallyFilledBid(auctionAddr, bidID, ctx.Uint64(flags.LastFilledFlag.Name), ctx.Uint64(flags.OutbidFlag.Name))
		return e.printTx("exitPartiallyFilledBid", tx, err)
	}
	tx, err := auction.ExitBid(auctionAddr, bidID)
	return e.printTx("exitBid", tx, err)
}

func claimCmd(ctx *cli.Context, e *env) error {
	auctionAddr, bidID, err := bidArgs(ctx)
	if err != nil {
		return err
	}
	tx, err := auction.ClaimTokens(auctionAddr, bidID)
	return e.printTx("claimTokens", tx, err)
}

func checkpointCmd(ctx *cli.Context, e *env) error {
	auctionAddr, err := addressArg(ctx, flags.AuctionFlag, true)
	if err != nil {
		return err
	}
	tx, err := auction.Checkpoint(auctionAddr)
	return e.printTx("checkpoint", tx, err)
}

func sweepCmd(ctx *cli.Context, e *env) error {
	auctionAddr, err := addressArg(ctx, flags.AuctionFlag, true)
	if err != nil {
		return err
	}
	if ctx.Bool(flags.SweepTokensFlag.Name) {
		tx, err := auction.SweepUnsoldTokens(auctionAddr)
		return e.printTx("sweepUnsoldTokens", tx, err)
	}
	tx, err := auction.SweepCurrency(auctionAddr)
	return e.printTx("sweepCurrency", tx, err)
}

func statusCmd(ctx *cli.Context, e *env) error {
	auctionAddr, err := addressArg(ctx, flags.AuctionFlag, true)
	if err != nil {
		return err
	}
	currencyDecimals, tokenDecimals, err := decimalsArgs(ctx)
	if err != nil {
		return err
	}

	sess, err := e.connect()
	if err != nil {
		return err
	}
	defer sess.Close()

	st, head, err := sess.state(e, auctionAddr)
	if err != nil {
		return err
	}
	return e.out.print(statusResult{
		ChainID:              e.chainID,
		Head:                 head,
		Phase:                st.Phase(head),
		State:                st,
		ClearingPriceDecimal: price.FromQ96(st.ClearingPrice, currencyDecimals, tokenDecimals).String(),
		FloorPriceDecimal:    price.FromQ96(st.FloorPrice, currencyDecimals, tokenDecimals).String(),
	})
}

func networksCmd(ctx *cli.Context, e *env) error {
	return e.out.print(newNetworksResult(integration.AllPresets(), e.cfg.Network.Name))
}

func bidArgs(ctx *cli.Context) (common.Address, *big.Int, error) {
	auctionAddr, err := addressArg(ctx, flags.AuctionFlag, true)
	if err != nil {
		return common.Address{}, nil, err
	}
	bidID, err := bigArg(ctx, flags.BidIDFlag, true)
	if err != nil {
		return common.Address{}, nil, err
	}
	return auctionAddr, bidID, nil
}

func (e *env) printTx(method string, tx auction.TxRequest, err error) error {
	if err != nil {
		return err
	}
	return e.out.print(txResult{ChainID: e.chainID, Method: method, TxRequest: tx})
}
