package dart

import (
	"testing"
)

func TestMarketOfCorpCls(t *testing.T) {
	tests := []struct {
		corpCls string
		want    string
	}{
		{"Y", MarketKOSPI},
		{"K", MarketKOSDAQ},
		{"N", MarketKONEX},
		{"E", MarketETC},
		{"", MarketETC},
		{"unknown", MarketETC},
	}

	for _, tt := range tests {
		t.Run(tt.corpCls, func(t *testing.T) {
			if got := MarketOfCorpCls(tt.corpCls); got != tt.want {
				t.Errorf("MarketOfCorpCls(%q) = %v, want %v", tt.corpCls, got, tt.want)
			}
		})
	}
}

func TestCorpClsOf(t *testing.T) {
	tests := []struct {
		market string
		want   string
		ok     bool
	}{
		{"KOSPI", "Y", true},
		{"kosdaq", "K", true},
		{"KONEX", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.market, func(t *testing.T) {
			got, ok := CorpClsOf(tt.market)
			if got != tt.want || ok != tt.ok {
				t.Errorf("CorpClsOf(%q) = (%v, %v), want (%v, %v)", tt.market, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestViewerURL(t *testing.T) {
	tests := []struct {
		name    string
		rceptNo string
		want    string
	}{
		{
			name:    "valid receipt number",
			rceptNo: "20240115000123",
			want:    "https://dart.fss.or.kr/dsaf001/main.do?rcpNo=20240115000123",
		},
		{
			name:    "empty receipt number",
			rceptNo: "",
			want:    "https://dart.fss.or.kr/dsaf001/main.do?rcpNo=",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ViewerURL(tt.rceptNo); got != tt.want {
				t.Errorf("ViewerURL(%q) = %v, want %v", tt.rceptNo, got, tt.want)
			}
		})
	}
}
