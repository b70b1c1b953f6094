package bcb

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"

	"github.com/dmaia/ledger-service/internal/config"
)

// selicMonthlySeries is the SGS series code for the monthly SELIC rate.
const selicMonthlySeries = 4390

// BCBClient handles integration with the Banco Central do Brasil SGS
// service, used to suggest a monthly rate when configuring a loan.
type BCBClient struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewBCBClient initializes a new BCB client
func NewBCBClient(cfg *config.Config, log *logrus.Logger) *BCBClient {
	return &BCBClient{
		url: cfg.BCBURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// buildSOAPRequest creates a SOAP request for the latest value of a series
func (c *BCBClient) buildSOAPRequest(series int) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
		<soapenv:Envelope xmlns:soapenv="http://schemas.xmlsoap.org/soap/envelope/" xmlns:fac="https://www3.bcb.gov.br/sgspub/">
			<soapenv:Body>
				<fac:getUltimoValorXML>
					<codigoSerie>%d</codigoSerie>
				</fac:getUltimoValorXML>
			</soapenv:Body>
		</soapenv:Envelope>`, series)
}

// sendRequest sends the SOAP request to the SGS endpoint
func (c *BCBClient) sendRequest(soapRequest string) ([]byte, error) {
	req, err := http.NewRequest("POST", c.url, bytes.NewBuffer([]byte(soapRequest)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", "getUltimoValorXML")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %v", err)
	}

	c.log.Debugf("BCB XML response: %s", string(body))

	return body, nil
}

// parseXMLResponse extracts the latest series value from the response
func (c *BCBClient) parseXMLResponse(rawBody []byte) (float64, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return 0, fmt.Errorf("failed to parse XML: %v", err)
	}

	valueElement := doc.FindElement("//SERIE/VALOR")
	if valueElement == nil {
		// the value comes back XML-escaped inside the return element
		ret := doc.FindElement("//getUltimoValorXMLReturn")
		if ret == nil {
			return 0, fmt.Errorf("no series data found in XML")
		}
		inner := etree.NewDocument()
		if err := inner.ReadFromString(ret.Text()); err != nil {
			return 0, fmt.Errorf("failed to parse inner XML: %v", err)
		}
		valueElement = inner.FindElement("//SERIE/VALOR")
		if valueElement == nil {
			return 0, fmt.Errorf("no series value found in XML")
		}
	}

	var rate float64
	if _, err := fmt.Sscanf(valueElement.Text(), "%f", &rate); err != nil {
		return 0, fmt.Errorf("failed to parse rate: %v", err)
	}

	return rate, nil
}

// GetReferenceRate retrieves the latest monthly SELIC rate and adds a
// spread, yielding the suggested monthly rate for a new loan.
func (c *BCBClient) GetReferenceRate() (float64, error) {
	soapRequest := c.buildSOAPRequest(selicMonthlySeries)
	body, err := c.sendRequest(soapRequest)
	if err != nil {
		return 0, err
	}

	rate, err := c.parseXMLResponse(body)
	if err != nil {
		return 0, err
	}

	// Typical consumer-loan spread over SELIC (percentage points per month)
	const loanSpread = 1.5
	rate += loanSpread

	c.log.Infof("Retrieved reference rate: %.2f%%/month (including %.2f%% spread)", rate, loanSpread)
	return rate, nil
}
