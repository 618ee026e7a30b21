package sink

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/redis/go-redis/v9"

	"gnss-analyzer/internal/config"
)

func redisKey(prefix, stem string) string { return prefix + stem }

func optField(v *float64) string {
	if v == nil {
		return "NA"
	}
	return strconv.FormatFloat(*v, 'f', 3, 64)
}

// summaryFields flattens the summary into hash fields, using the same NA
// convention as the CSV summary.
func summaryFields(s Summary) map[string]any {
	return map[string]any{
		"session_start":   s.SessionStart,
		"ref_lat_deg":     strconv.FormatFloat(s.RefLatDeg, 'f', 6, 64),
		"ref_lon_deg":     strconv.FormatFloat(s.RefLonDeg, 'f', 6, 64),
		"fix_acquired":    strconv.FormatBool(s.FixAcquired),
		"ttff_s":          optField(s.TTFFS),
		"cep50_m":         optField(s.CEP50M),
		"cep95_m":         optField(s.CEP95M),
		"rms_m":           optField(s.RMSM),
		"total_fixes":     strconv.Itoa(s.TotalFixes),
		"valid_fixes":     strconv.Itoa(s.ValidFixes),
		"malformed_lines": strconv.Itoa(s.Malformed),
		"out_of_session":  strconv.Itoa(s.OutOfSession),
	}
}

// WriteRedis stores the summary as a hash keyed by log stem.
func WriteRedis(ctx context.Context, cfg config.RedisConfig, s Summary) error {
	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	key := redisKey(cfg.KeyPrefix, s.Log)
	_, err := rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.HSet(ctx, key, summaryFields(s))
		if cfg.TTL > 0 {
			p.Expire(ctx, key, cfg.TTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis HSET %s: %w", key, err)
	}
	log.Printf("redis: stored key=%s ttl=%s", key, cfg.TTL)
	return nil
}
