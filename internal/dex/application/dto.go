package application

// CreatePoolRequest 创建资金池请求
type CreatePoolRequest struct {
	AssetA        string `json:"asset_a" binding:"required"`
	AssetB        string `json:"asset_b" binding:"required"`
	CurveKind     string `json:"curve_kind" binding:"required"`
	FeeBps        int64  `json:"fee_bps"`
	Amplification int64  `json:"amplification"`
	Creator       string `json:"creator" binding:"required"`
}

// PoolDTO 资金池视图
type PoolDTO struct {
	PoolID        string `json:"pool_id"`
	Asset0        string `json:"asset0"`
	Asset1        string `json:"asset1"`
	Reserve0      string `json:"reserve0"`
	Reserve1      string `json:"reserve1"`
	TotalShares   string `json:"total_shares"`
	FeeBps        int64  `json:"fee_bps"`
	CurveKind     string `json:"curve_kind"`
	Amplification int64  `json:"amplification"`
	Initialized   bool   `json:"initialized"`
}

// DepositRequest 注入流动性请求
type DepositRequest struct {
	PoolID    string `json:"pool_id" binding:"required"`
	Depositor string `json:"depositor" binding:"required"`
	Amount0   string `json:"amount0" binding:"required"`
	Amount1   string `json:"amount1" binding:"required"`
	// MinAmount0 / MinAmount1 任一侧实际消耗低于该下限则拒绝，空值视为零
	MinAmount0 string `json:"min_amount0"`
	MinAmount1 string `json:"min_amount1"`
}

// DepositDTO 注资结果视图
type DepositDTO struct {
	PoolID       string `json:"pool_id"`
	Amount0      string `json:"amount0"`
	Amount1      string `json:"amount1"`
	SharesMinted string `json:"shares_minted"`
	SharesLocked string `json:"shares_locked"`
	Refund0      string `json:"refund0"`
	Refund1      string `json:"refund1"`
}

// WithdrawRequest 提取流动性请求
type WithdrawRequest struct {
	PoolID    string `json:"pool_id" binding:"required"`
	Depositor string `json:"depositor" binding:"required"`
	Shares    string `json:"shares" binding:"required"`
	// MinAmount0 / MinAmount1 任一侧实际提取低于该下限则拒绝，空值视为零
	MinAmount0 string `json:"min_amount0"`
	MinAmount1 string `json:"min_amount1"`
}

// WithdrawDTO 提取结果视图
type WithdrawDTO struct {
	PoolID  string `json:"pool_id"`
	Amount0 string `json:"amount0"`
	Amount1 string `json:"amount1"`
}

// QuoteRequest 只读报价请求
type QuoteRequest struct {
	PoolID   string `json:"pool_id" binding:"required"`
	AssetIn  string `json:"asset_in" binding:"required"`
	AmountIn string `json:"amount_in" binding:"required"`
}

// QuoteDTO 报价结果
type QuoteDTO struct {
	PoolID    string `json:"pool_id"`
	AssetIn   string `json:"asset_in"`
	AmountIn  string `json:"amount_in"`
	AmountOut string `json:"amount_out"`
}

// CommitRequest 提交订单承诺请求
type CommitRequest struct {
	PoolID    string `json:"pool_id" binding:"required"`
	Submitter string `json:"submitter" binding:"required"`
	Hash      string `json:"hash" binding:"required"`
	Bond      string `json:"bond" binding:"required"`
}

// CommitDTO 承诺回执
type CommitDTO struct {
	CommitmentID string `json:"commitment_id"`
	PoolID       string `json:"pool_id"`
	BatchNumber  int64  `json:"batch_number"`
	Status       string `json:"status"`
}

// RevealRequest 揭示订单请求
type RevealRequest struct {
	CommitmentID string `json:"commitment_id" binding:"required"`
	Trader       string `json:"trader" binding:"required"`
	AssetIn      string `json:"asset_in" binding:"required"`
	AssetOut     string `json:"asset_out" binding:"required"`
	AmountIn     string `json:"amount_in" binding:"required"`
	MinAmountOut string `json:"min_amount_out" binding:"required"`
	Priority     bool   `json:"priority"`
	Secret       string `json:"secret" binding:"required"`
}

// RevealDTO 揭示回执
type RevealDTO struct {
	CommitmentID string `json:"commitment_id"`
	BatchNumber  int64  `json:"batch_number"`
	RevealIndex  int    `json:"reveal_index"`
	Status       string `json:"status"`
}

// BatchDTO 批次视图
type BatchDTO struct {
	PoolID        string `json:"pool_id"`
	Number        int64  `json:"number"`
	Phase         string `json:"phase"`
	PhaseStart    int64  `json:"phase_start"`
	OrderCount    int    `json:"order_count"`
	ClearingPrice string `json:"clearing_price,omitempty"`
	SettledAt     *int64 `json:"settled_at,omitempty"`
}

// SettleRequest 执行批次结算请求
type SettleRequest struct {
	PoolID   string `json:"pool_id" binding:"required"`
	Executor string `json:"executor" binding:"required"`
}

// FillDTO 单笔成交视图
type FillDTO struct {
	CommitmentID string `json:"commitment_id"`
	Trader       string `json:"trader"`
	AssetIn      string `json:"asset_in"`
	AmountIn     string `json:"amount_in"`
	AmountOut    string `json:"amount_out"`
	Excluded     bool   `json:"excluded"`
}

// SettleDTO 结算结果视图
type SettleDTO struct {
	PoolID        string     `json:"pool_id"`
	BatchNumber   int64      `json:"batch_number"`
	ClearingPrice string     `json:"clearing_price"`
	FilledCount   int        `json:"filled_count"`
	ExcludedCount int        `json:"excluded_count"`
	SlashedCount  int        `json:"slashed_count"`
	TreasuryFee0  string     `json:"treasury_fee0"`
	TreasuryFee1  string     `json:"treasury_fee1"`
	Fills         []*FillDTO `json:"fills"`
}

// PositionDTO 流动性头寸视图
type PositionDTO struct {
	PoolID        string `json:"pool_id"`
	Depositor     string `json:"depositor"`
	Shares        string `json:"shares"`
	LastDepositAt int64  `json:"last_deposit_at"`
}

// SetFeeRequest 管理员调整池费率请求
type SetFeeRequest struct {
	PoolID string `json:"pool_id" binding:"required"`
	FeeBps int64  `json:"fee_bps"`
	Caller string `json:"caller" binding:"required"`
}

// SetAmplificationRequest 管理员调整稳定曲线放大系数请求
type SetAmplificationRequest struct {
	PoolID        string `json:"pool_id" binding:"required"`
	Amplification int64  `json:"amplification" binding:"required"`
	Caller        string `json:"caller" binding:"required"`
}

// SetPhaseDurationsRequest 管理员调整批次阶段时长请求
type SetPhaseDurationsRequest struct {
	CommitDuration int64  `json:"commit_duration" binding:"required"`
	RevealDuration int64  `json:"reveal_duration" binding:"required"`
	Caller         string `json:"caller" binding:"required"`
}

// SetBreakerThresholdRequest 管理员调整熔断阈值请求
type SetBreakerThresholdRequest struct {
	Threshold string `json:"threshold" binding:"required"`
	Caller    string `json:"caller" binding:"required"`
}

// ResetBreakerRequest 授权方重置熔断器请求
type ResetBreakerRequest struct {
	PoolID string `json:"pool_id" binding:"required"`
	Caller string `json:"caller" binding:"required"`
}

// OracleSampleInput 外部预言机样本输入（HTTP 或消息队列）
type OracleSampleInput struct {
	PoolID            string `json:"pool_id" binding:"required"`
	Price             string `json:"price" binding:"required"`
	Confidence        string `json:"confidence"`
	DeviationZScore   string `json:"deviation_z_score"`
	Regime            string `json:"regime"`
	ManipulationScore string `json:"manipulation_score"`
	Timestamp         int64  `json:"timestamp" binding:"required"`
}
