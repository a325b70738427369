package journal

// Schema holds simulation summaries only. Individual trades live in memory
// for the lifetime of a session and are streamed, never stored.
const Schema = `
CREATE TABLE IF NOT EXISTS simulations (
	run_id TEXT PRIMARY KEY,
	strategy TEXT NOT NULL,
	account_id TEXT NOT NULL,
	trading_pair TEXT NOT NULL,
	started DATETIME NOT NULL,
	finished DATETIME NOT NULL,
	days INTEGER NOT NULL,
	trades_per_day INTEGER NOT NULL,
	initial_capital REAL NOT NULL,
	final_capital REAL NOT NULL,
	total_profit_loss REAL NOT NULL,
	total_profit_loss_pct REAL NOT NULL,
	total_trades INTEGER NOT NULL,
	profitable_trades INTEGER NOT NULL,
	losing_trades INTEGER NOT NULL,
	errors INTEGER NOT NULL,
	halted INTEGER NOT NULL,
	halted_reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS simulation_days (
	run_id TEXT NOT NULL REFERENCES simulations(run_id) ON DELETE CASCADE,
	day INTEGER NOT NULL,
	starting_capital REAL NOT NULL,
	ending_capital REAL NOT NULL,
	profit_loss REAL NOT NULL,
	profit_loss_pct REAL NOT NULL,
	trades INTEGER NOT NULL,
	profitable_trades INTEGER NOT NULL,
	losing_trades INTEGER NOT NULL,
	PRIMARY KEY (run_id, day)
);
`
