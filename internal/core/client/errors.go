package client

import (
	"time"

	"github.com/dep2p/go-pcp/pkg/types"
)

// secondsToDuration 把线上秒数转为 time.Duration
func secondsToDuration(s uint32) time.Duration {
	return time.Duration(s) * time.Second
}

// postErr 向错误通道投递一个分类错误
//
// 先于对应的否定回复调用，保证请求方观察到否定回复时错误已可取。
// 通道容量充裕；消费方长期不取时丢弃并记录，绝不阻塞事件循环
//（阻塞会让否定回复永远发不出去，形成死锁环）。
func (w *Worker) postErr(err *types.Error) {
	select {
	case w.errs <- err:
	default:
		log.Error("错误通道已满，丢弃错误", "err", err)
	}
}

// postReqErr 投递请求失败的权威原因
//
// 否定回复的等待方随后会从错误通道取这个原因，因此它不能被丢弃：
// 饱和时淘汰最旧的一条积压错误腾出空位（worker 是唯一发送方，
// 淘汰后必有空位）。
func (w *Worker) postReqErr(err *types.Error) {
	for {
		select {
		case w.errs <- err:
			return
		default:
		}
		select {
		case old := <-w.errs:
			log.Warn("错误通道已满，淘汰积压错误", "err", old)
		default:
		}
	}
}
