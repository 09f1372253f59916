package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - 训练错误：INSUFFICIENT_DATA, BUSY
//   - 模型产物错误：CORRUPT
//   - 服务错误：INVALID_INPUT, UNAVAILABLE
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "INSUFFICIENT_DATA"）
	Message string // 错误消息
	Module  string // 模块名称（如 "store", "factor", "engine"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound         = "NOT_FOUND"          // 资源不存在
	ErrorCodeNotSupported     = "NOT_SUPPORTED"      // 操作不支持
	ErrorCodeUnavailable      = "UNAVAILABLE"        // 服务不可用
	ErrorCodeInvalidInput     = "INVALID_INPUT"      // 输入无效
	ErrorCodeInternalError    = "INTERNAL_ERROR"     // 内部错误
	ErrorCodeInsufficientData = "INSUFFICIENT_DATA"  // 训练数据不足
	ErrorCodeCorrupt          = "CORRUPT"            // 模型产物损坏
	ErrorCodeBusy             = "BUSY"               // 已有构建在进行中
)

// 模块名称常量
const (
	ModuleStore    = "store"    // 存储模块
	ModuleRegistry = "registry" // ID 映射模块
	ModuleMatrix   = "matrix"   // 交互矩阵模块
	ModuleFactor   = "factor"   // 矩阵分解模块
	ModuleVector   = "vector"   // 向量索引模块
	ModuleArtifact = "artifact" // 模型产物模块
	ModuleEngine   = "engine"   // 服务引擎模块
	ModuleLLM      = "llm"      // 大模型服务模块
	ModuleSource   = "source"   // 数据源模块
)

// matchCode 检查错误是否为指定代码的 DomainError
func matchCode(err error, code string) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool { return matchCode(err, ErrorCodeNotFound) }

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool { return matchCode(err, ErrorCodeNotSupported) }

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool { return matchCode(err, ErrorCodeUnavailable) }

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool { return matchCode(err, ErrorCodeInvalidInput) }

// IsInsufficientData 检查错误是否为 INSUFFICIENT_DATA
func IsInsufficientData(err error) bool { return matchCode(err, ErrorCodeInsufficientData) }

// IsCorrupt 检查错误是否为 CORRUPT
func IsCorrupt(err error) bool { return matchCode(err, ErrorCodeCorrupt) }

// IsBusy 检查错误是否为 BUSY
func IsBusy(err error) bool { return matchCode(err, ErrorCodeBusy) }
